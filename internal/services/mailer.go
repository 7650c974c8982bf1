package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/AnshRaj112/mindnest-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"gopkg.in/gomail.v2"
)

// Mailer delivers a plain HTML email.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// SMTPMailer sends mail through an SMTP relay.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPMailer(host string, port int, username, password, from string) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)
	return m.dialer.DialAndSend(msg)
}

// Notifier emails the parties of an appointment. Sends run in the
// background and failures are only logged.
type Notifier struct {
	mailer Mailer // nil disables notifications
	users  UserStore
	logger *slog.Logger
}

func NewNotifier(mailer Mailer, users UserStore, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{mailer: mailer, users: users, logger: logger}
}

// AppointmentBooked tells the client and the therapist about a new booking.
func (n *Notifier) AppointmentBooked(a models.Appointment, therapistUserID primitive.ObjectID) {
	if n == nil || n.mailer == nil {
		return
	}
	when := fmt.Sprintf("%s at %s", a.Date.Format("Monday, January 2, 2006"), a.Time)
	n.sendAsync(a.ClientID, "Your MindNest session is booked",
		fmt.Sprintf("<p>Your %s session is scheduled for %s.</p>", a.Type, when))
	n.sendAsync(therapistUserID, "New MindNest session request",
		fmt.Sprintf("<p>A client booked a %s session on %s.</p>", a.Type, when))
}

// StatusChanged tells the client that their appointment moved to a new status.
func (n *Notifier) StatusChanged(a models.Appointment) {
	if n == nil || n.mailer == nil {
		return
	}
	n.sendAsync(a.ClientID, "Your MindNest session was updated",
		fmt.Sprintf("<p>Your session on %s at %s is now <strong>%s</strong>.</p>",
			a.Date.Format("Monday, January 2, 2006"), a.Time, a.Status))
}

func (n *Notifier) sendAsync(userID primitive.ObjectID, subject, body string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		u, err := n.users.GetUserByID(ctx, userID)
		if err != nil {
			n.logger.Warn("notification recipient lookup failed", slog.String("user_id", userID.Hex()), slog.Any("error", err))
			return
		}
		if err := n.mailer.Send(ctx, u.Email, subject, body); err != nil {
			n.logger.Warn("notification email failed", slog.String("user_id", userID.Hex()), slog.Any("error", err))
		}
	}()
}
