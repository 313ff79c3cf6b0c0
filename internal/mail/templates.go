package mail

import (
	"bytes"
	"fmt"
	"html/template"
	texttemplate "text/template"
)

type VerificationData struct {
	Name      string
	VerifyURL string
}

type verificationCopy struct {
	subject  string
	htmlTmpl *template.Template
	textTmpl *texttemplate.Template
}

const verificationHTMLNL = `<p>Beste {{.Name}},</p>
<p>Bedankt voor uw offerteaanvraag. Klik op onderstaande link om uw e-mailadres te bevestigen:</p>
<p><a href="{{.VerifyURL}}">E-mailadres bevestigen</a></p>
<p>De link is 24 uur geldig. Heeft u geen aanvraag gedaan, dan kunt u deze e-mail negeren.</p>`

const verificationTextNL = `Beste {{.Name}},

Bedankt voor uw offerteaanvraag. Bevestig uw e-mailadres via onderstaande link:

{{.VerifyURL}}

De link is 24 uur geldig. Heeft u geen aanvraag gedaan, dan kunt u deze e-mail negeren.`

const verificationHTMLEN = `<p>Dear {{.Name}},</p>
<p>Thank you for your quote request. Please confirm your e-mail address by clicking the link below:</p>
<p><a href="{{.VerifyURL}}">Confirm e-mail address</a></p>
<p>The link is valid for 24 hours. If you did not submit a request, you can ignore this e-mail.</p>`

const verificationTextEN = `Dear {{.Name}},

Thank you for your quote request. Please confirm your e-mail address via the link below:

{{.VerifyURL}}

The link is valid for 24 hours. If you did not submit a request, you can ignore this e-mail.`

var verificationTemplates = map[string]verificationCopy{
	"nl": {
		subject:  "Bevestig uw offerteaanvraag",
		htmlTmpl: template.Must(template.New("nl_html").Parse(verificationHTMLNL)),
		textTmpl: texttemplate.Must(texttemplate.New("nl_text").Parse(verificationTextNL)),
	},
	"en": {
		subject:  "Confirm your quote request",
		htmlTmpl: template.Must(template.New("en_html").Parse(verificationHTMLEN)),
		textTmpl: texttemplate.Must(texttemplate.New("en_text").Parse(verificationTextEN)),
	},
}

// RenderVerification renders the verification e-mail in the given locale,
// falling back to Dutch for unknown locales.
func RenderVerification(locale string, data VerificationData) (subject, htmlBody, textBody string, err error) {
	copySet, ok := verificationTemplates[locale]
	if !ok {
		copySet = verificationTemplates["nl"]
	}
	var htmlBuf, textBuf bytes.Buffer
	if err := copySet.htmlTmpl.Execute(&htmlBuf, data); err != nil {
		return "", "", "", fmt.Errorf("render verification html: %w", err)
	}
	if err := copySet.textTmpl.Execute(&textBuf, data); err != nil {
		return "", "", "", fmt.Errorf("render verification text: %w", err)
	}
	return copySet.subject, htmlBuf.String(), textBuf.String(), nil
}
