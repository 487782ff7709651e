package email

import (
	"context"
	"fmt"
	"html"

	"courseplatform/services/enrollment-service/internal/domain"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type EmailSender struct {
	client      *sendgrid.Client
	senderEmail string
	senderName  string
	frontend    string
}

func NewEmailSender(apiKey, senderEmail, frontend string) *EmailSender {
	return &EmailSender{
		client:      sendgrid.NewSendClient(apiKey),
		senderEmail: senderEmail,
		senderName:  "Course Platform",
		frontend:    frontend,
	}
}

func (s *EmailSender) SendCourseCompleted(ctx context.Context, ev domain.CourseCompleted) error {
	if ev.StudentEmail == "" {
		return fmt.Errorf("no recipient for enrollment %s", ev.EnrollmentID)
	}
	from := mail.NewEmail(s.senderName, s.senderEmail)
	to := mail.NewEmail("", ev.StudentEmail)
	subject, plain, body := courseCompletedContent(s.frontend, ev)

	resp, err := s.client.SendWithContext(ctx, mail.NewSingleEmail(from, subject, to, plain, body))
	if err != nil {
		return err
	}
	// SendGrid возвращает 202 при успехе
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid error: status=%d body=%s", resp.StatusCode, resp.Body)
	}
	return nil
}

func courseCompletedContent(frontend string, ev domain.CourseCompleted) (subject, plain, body string) {
	link := fmt.Sprintf("%s/courses/%s/certificate", frontend, ev.CourseID)
	title := html.EscapeString(ev.CourseTitle)
	subject = fmt.Sprintf("Курс «%s» пройден", ev.CourseTitle)
	plain = fmt.Sprintf("Поздравляем! Вы прошли курс «%s». Сертификат: %s", ev.CourseTitle, link)
	body = fmt.Sprintf(`
<html>
<body style="font-family: Arial, sans-serif;">
	<h3>Поздравляем!</h3>
	<p>Вы прошли курс «%s». Сертификат уже доступен.</p>
	<a href="%s">Получить сертификат</a>
</body>
</html>`, title, link)
	return subject, plain, body
}
