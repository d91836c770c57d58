package milestones

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderCertificate(t *testing.T) {
	users := &fakeUsers{}
	n, _ := newTestNotifier(t, users, Settings{})

	note, err := n.Evaluate(context.Background(), 500)
	require.NoError(t, err)
	require.NotNil(t, note)

	var buf bytes.Buffer
	require.NoError(t, RenderCertificate(&buf, *note))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestCertificateDateUsesStoreTimeZoneYear(t *testing.T) {
	users := &fakeUsers{}
	n, _ := newTestNotifier(t, users, Settings{Location: time.FixedZone("+10:00", 10*60*60)})
	n.Now = func() time.Time { return time.Date(2026, 12, 31, 19, 0, 0, 0, time.UTC) }

	note, err := n.Evaluate(context.Background(), 250)
	require.NoError(t, err)
	require.NotNil(t, note)

	content, err := ContentOf(*note)
	require.NoError(t, err)
	assert.Equal(t, "January 1st", content.ActivatedFormatted)
	assert.Equal(t, 2027, content.ActivatedYear)
	assert.Equal(t, "January 1st 2027", content.ReachedOn())

	var buf bytes.Buffer
	require.NoError(t, RenderCertificate(&buf, *note))
}

func TestReachedOnFallsBackToUTCYearForLegacyContent(t *testing.T) {
	legacy := Content{Activated: time.Date(2025, 6, 3, 12, 0, 0, 0, time.UTC).Unix(), ActivatedFormatted: "June 3rd"}
	assert.Equal(t, "June 3rd 2025", legacy.ReachedOn())
	assert.Empty(t, Content{}.ReachedOn())
}
