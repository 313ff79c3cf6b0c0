package mail

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRenderVerificationLocales(t *testing.T) {
	data := VerificationData{Name: "Jan", VerifyURL: "https://example.com/verify?token=abc"}

	subject, htmlBody, textBody, err := RenderVerification("nl", data)
	require.NoError(t, err)
	require.Equal(t, "Bevestig uw offerteaanvraag", subject)
	require.Contains(t, htmlBody, "Beste Jan")
	require.Contains(t, textBody, data.VerifyURL)

	subject, htmlBody, textBody, err = RenderVerification("en", data)
	require.NoError(t, err)
	require.Equal(t, "Confirm your quote request", subject)
	require.Contains(t, htmlBody, "Dear Jan")
	require.Contains(t, textBody, data.VerifyURL)
}

func TestRenderVerificationUnknownLocaleFallsBackToDutch(t *testing.T) {
	subject, _, textBody, err := RenderVerification("de", VerificationData{Name: "Jan", VerifyURL: "https://example.com/v"})
	require.NoError(t, err)
	require.Equal(t, "Bevestig uw offerteaanvraag", subject)
	require.Contains(t, textBody, "Beste Jan")
}

func TestRenderVerificationEscapesHTML(t *testing.T) {
	_, htmlBody, _, err := RenderVerification("nl", VerificationData{
		Name:      "<script>alert(1)</script>",
		VerifyURL: "https://example.com/v",
	})
	require.NoError(t, err)
	require.NotContains(t, htmlBody, "<script>")
}
