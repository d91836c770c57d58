package notes

const (
	TypeInfo    = "info"
	TypeWarning = "warning"
	TypeUpdate  = "update"
)

const (
	StatusUnactioned = "unactioned"
	StatusActioned   = "actioned"
)
