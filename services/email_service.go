package services

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"net/mail"
	"strings"

	"ticket-marketplace/models"

	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/mailer"
	"github.com/skip2/go-qrcode"
)

// EmailService sends the post-purchase ticket email through the
// platform mailer. Failures are logged, never propagated: email is
// fire-and-forget relative to ticket issuance.
type EmailService struct {
	App     core.App
	Tickets *TicketService
}

func NewEmailService(app core.App, tickets *TicketService) *EmailService {
	return &EmailService{App: app, Tickets: tickets}
}

// SendTicketsEmail mails the buyer one QR attachment per ticket.
func (s *EmailService) SendTicketsEmail(ticketIDs []string, userID string) {
	if len(ticketIDs) == 0 {
		return
	}

	user, err := s.App.FindRecordById("users", userID)
	if err != nil {
		log.Printf("Ticket email: user %s not found: %v", userID, err)
		return
	}
	address := user.Email()
	if address == "" {
		log.Printf("Ticket email: user %s has no email address", userID)
		return
	}

	var eventName string
	var lines []string
	attachments := make(map[string]io.Reader, len(ticketIDs))

	for i, ticketID := range ticketIDs {
		rec, err := s.App.FindRecordById(models.CollectionTickets, ticketID)
		if err != nil {
			log.Printf("Ticket email: ticket %s not found: %v", ticketID, err)
			continue
		}
		ticket := models.TicketFromRecord(rec)

		if eventName == "" {
			if eventRec, err := s.App.FindRecordById(models.CollectionEvents, ticket.EventID); err == nil {
				eventName = eventRec.GetString("name")
			}
		}

		payload := s.Tickets.GenerateQRPayload(ticket.EventID, ticket.ID, ticket.UniqueCode)
		qrPNG, err := qrcode.Encode(payload, qrcode.Medium, 256)
		if err != nil {
			log.Printf("Ticket email: qr encode for %s: %v", ticketID, err)
			continue
		}

		name := fmt.Sprintf("ticket-%d.png", i+1)
		attachments[name] = bytes.NewReader(qrPNG)
		lines = append(lines, fmt.Sprintf("<li>Ticket <strong>%s</strong> (see %s)</li>", ticket.UniqueCode, name))
	}

	if len(lines) == 0 {
		return
	}

	message := &mailer.Message{
		From: mail.Address{
			Name:    s.App.Settings().Meta.SenderName,
			Address: s.App.Settings().Meta.SenderAddress,
		},
		To:      []mail.Address{{Address: address}},
		Subject: fmt.Sprintf("Your tickets for %s", eventName),
		HTML: fmt.Sprintf(
			"<p>Your purchase is confirmed. Present a QR code below at the entrance.</p><ul>%s</ul>",
			strings.Join(lines, ""),
		),
		Attachments: attachments,
	}

	if err := s.App.NewMailClient().Send(message); err != nil {
		log.Printf("Ticket email: send to %s failed: %v", address, err)
	}
}
