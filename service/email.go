package service

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"gopkg.in/gomail.v2"

	"cautiva/audit"
	"cautiva/config"
	"cautiva/ledger"
	"cautiva/models"
)

// EmailService 邮件服务，审计写入失败时通知管理员
type EmailService struct {
	cfg  *config.EmailConfig
	send func(m *gomail.Message) error
}

// NewEmailService 创建邮件服务
func NewEmailService(cfg *config.EmailConfig) *EmailService {
	s := &EmailService{cfg: cfg}
	s.send = s.dialAndSend
	return s
}

// AuditFailed 实现 audit.Alerter
func (s *EmailService) AuditFailed(ctx context.Context, entry audit.Entry, cause error) error {
	if !s.cfg.Enabled {
		return nil
	}
	if len(s.cfg.AlertTo) == 0 {
		return fmt.Errorf("email alert_to is empty")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	subject := "[La Cautiva] Error al registrar auditoría"
	body := s.generateAuditAlertBody(entry, cause, time.Now())
	return s.sendEmail(s.cfg.AlertTo, subject, body)
}

// generateAuditAlertBody 生成审计告警邮件内容
func (s *EmailService) generateAuditAlertBody(entry audit.Entry, cause error, at time.Time) string {
	var rows strings.Builder
	writeSnapshot := func(title string, snap *models.Snapshot) {
		if snap == nil {
			return
		}
		fmt.Fprintf(&rows, `<tr><td>%s</td><td>%s · %s · %s · %s</td></tr>`,
			title,
			html.EscapeString(snap.Type.Label()),
			html.EscapeString(models.CategoryLabel(snap.Category)),
			html.EscapeString(snap.Description),
			ledger.FormatARS(snap.Amount),
		)
	}
	writeSnapshot("Antes", entry.Antes)
	writeSnapshot("Después", entry.Despues)
	writeSnapshot("Eliminado", entry.Eliminado)

	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; background: #f5f5f5; margin: 0; padding: 20px; }
        .container { max-width: 600px; margin: 0 auto; background: #fff; border-radius: 12px; overflow: hidden; }
        .header { background: #ef4444; color: white; padding: 24px; text-align: center; }
        .content { padding: 30px; color: #333; line-height: 1.6; }
        table { width: 100%%; border-collapse: collapse; }
        td { border-bottom: 1px solid #eee; padding: 8px; font-size: 14px; }
        .footer { background: #f8f9fa; padding: 16px; text-align: center; color: #6c757d; font-size: 12px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header"><h2>No se pudo registrar la auditoría</h2></div>
        <div class="content">
            <p>La operación se guardó, pero su registro en la auditoría falló.</p>
            <table>
                <tr><td>Usuario</td><td>%s</td></tr>
                <tr><td>Acción</td><td>%s</td></tr>
                <tr><td>Fecha</td><td>%s</td></tr>
                <tr><td>Error</td><td>%s</td></tr>
                %s
            </table>
        </div>
        <div class="footer"><p>Mensaje automático, no responder.</p></div>
    </div>
</body>
</html>
`, html.EscapeString(entry.Usuario),
		html.EscapeString(entry.Accion),
		at.Format(time.RFC3339),
		html.EscapeString(cause.Error()),
		rows.String())
}

// sendEmail 发送邮件
func (s *EmailService) sendEmail(to []string, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(s.cfg.Username, s.cfg.From))
	m.SetHeader("To", to...)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.send(m); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

func (s *EmailService) dialAndSend(m *gomail.Message) error {
	d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)
	return d.DialAndSend(m)
}

// SendTestEmail 发送测试邮件
func (s *EmailService) SendTestEmail(toEmail string) error {
	if !s.cfg.Enabled {
		return fmt.Errorf("email service disabled")
	}
	body := `
<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; padding: 20px;">
    <h2>Configuración de correo correcta</h2>
    <p>Si recibiste este mensaje, el servicio de correo está configurado.</p>
</body>
</html>
`
	return s.sendEmail([]string{toEmail}, "[La Cautiva] Prueba de correo", body)
}
