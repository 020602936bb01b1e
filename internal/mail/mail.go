// Package mail dispatches password-reset notifications.
package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/url"
	"strings"
)

// Mailer sends the emailed reset link.
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, link string) error
}

const resetSubject = "Recuperación de contraseña"

var resetTemplate = template.Must(template.New("reset").Parse(
	`<p>Para restablecer tu contraseña, haz clic en el siguiente enlace:</p>
<a href="{{.}}">{{.}}</a>
`))

// ResetLink joins the frontend base URL and the token as a path segment.
func ResetLink(frontendURL, token string) string {
	return strings.TrimRight(frontendURL, "/") + "/reset-password/" + url.PathEscape(token)
}

func renderReset(link string) (htmlBody, textBody string, err error) {
	var buf bytes.Buffer
	if err := resetTemplate.Execute(&buf, link); err != nil {
		return "", "", fmt.Errorf("render reset email: %w", err)
	}
	textBody = "Para restablecer tu contraseña, abre el siguiente enlace:\n" + link + "\n"
	return buf.String(), textBody, nil
}
