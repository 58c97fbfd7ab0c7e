package services

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"ticket-marketplace/internal/status"
	"ticket-marketplace/models"
	"ticket-marketplace/monitoring"

	"github.com/phpdave11/gofpdf"
	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/skip2/go-qrcode"
)

// allowedDrift is the accepted age of a scanned QR payload.
const allowedDrift = 5 * time.Minute

// TicketService issues QR payloads for purchased tickets and enforces
// at-most-once consumption at the venue door.
type TicketService struct {
	App     core.App
	Secret  string
	Monitor *monitoring.Monitor
}

func NewTicketService(app core.App, qrSecret string, monitor *monitoring.Monitor) *TicketService {
	return &TicketService{
		App:     app,
		Secret:  qrSecret,
		Monitor: monitor,
	}
}

// GenerateQRPayload returns a signed payload string:
// eventID|ticketID|uniqueCode|timestamp|signature
func (s *TicketService) GenerateQRPayload(eventID, ticketID, uniqueCode string) string {
	timestamp := time.Now().Unix()
	data := fmt.Sprintf("%s|%s|%s|%d", eventID, ticketID, uniqueCode, timestamp)

	h := hmac.New(sha256.New, []byte(s.Secret))
	h.Write([]byte(data))
	sig := base64.StdEncoding.EncodeToString(h.Sum(nil))

	return fmt.Sprintf("%s|%s", data, sig)
}

// VerifyTicketQR verifies a scanned payload and returns its parts.
func (s *TicketService) VerifyTicketQR(payload string) (eventID, ticketID, uniqueCode string, err error) {
	parts := strings.Split(payload, "|")
	if len(parts) != 5 {
		return "", "", "", errors.New("invalid QR format")
	}

	eventID = parts[0]
	ticketID = parts[1]
	uniqueCode = parts[2]
	timestampStr := parts[3]
	signature := parts[4]

	ts, err := strconv.ParseInt(timestampStr, 10, 64)
	if err != nil {
		return "", "", "", errors.New("invalid timestamp")
	}

	drift := time.Now().Unix() - ts
	if drift < 0 {
		drift = -drift
	}
	if drift > int64(allowedDrift.Seconds()) {
		return "", "", "", errors.New("QR payload expired or from the future")
	}

	data := fmt.Sprintf("%s|%s|%s|%s", eventID, ticketID, uniqueCode, timestampStr)
	h := hmac.New(sha256.New, []byte(s.Secret))
	h.Write([]byte(data))
	expectedSig := base64.StdEncoding.EncodeToString(h.Sum(nil))

	if !hmac.Equal([]byte(signature), []byte(expectedSig)) {
		return "", "", "", errors.New("invalid signature")
	}

	return eventID, ticketID, uniqueCode, nil
}

// Consume marks a valid ticket as used. Only the event owner may scan;
// a second scan fails without touching the row.
func (s *TicketService) Consume(ctx context.Context, ticketID, requesterID string) error {
	return s.App.RunInTransaction(func(txApp core.App) error {
		rec, err := txApp.FindRecordById(models.CollectionTickets, ticketID)
		if err != nil {
			return status.ErrTicketNotFound
		}
		ticket := models.TicketFromRecord(rec)

		eventRec, err := txApp.FindRecordById(models.CollectionEvents, ticket.EventID)
		if err != nil {
			return status.ErrEventNotFound
		}
		if eventRec.GetString("user") != requesterID {
			return status.ErrAccessDenied
		}

		if ticket.Status != models.TicketValid {
			return status.ErrTicketNotValid
		}

		rec.Set("status", models.TicketUsed)
		return txApp.Save(rec)
	})
}

// ConsumeByQR verifies a scanned payload end to end, then consumes.
func (s *TicketService) ConsumeByQR(ctx context.Context, payload, requesterID string) (string, error) {
	_, ticketID, uniqueCode, err := s.VerifyTicketQR(payload)
	if err != nil {
		return "", fmt.Errorf("scan: %w", err)
	}

	rec, err := s.App.FindRecordById(models.CollectionTickets, ticketID)
	if err != nil || rec.GetString("unique_code") != uniqueCode {
		return "", status.ErrTicketNotFound
	}

	return ticketID, s.Consume(ctx, ticketID, requesterID)
}

// ScannerTickets lists the still-valid tickets for the owner's scanner.
func (s *TicketService) ScannerTickets(eventID, requesterID string) ([]*models.Ticket, error) {
	eventRec, err := s.App.FindRecordById(models.CollectionEvents, eventID)
	if err != nil {
		return nil, status.ErrEventNotFound
	}
	if eventRec.GetString("user") != requesterID {
		return nil, status.ErrAccessDenied
	}

	recs, err := s.App.FindAllRecords(models.CollectionTickets,
		dbx.HashExp{"event": eventID, "status": models.TicketValid},
	)
	if err != nil {
		return nil, fmt.Errorf("scanner tickets: %w", err)
	}

	tickets := make([]*models.Ticket, 0, len(recs))
	for _, rec := range recs {
		tickets = append(tickets, models.TicketFromRecord(rec))
	}
	return tickets, nil
}

// UserTickets lists a buyer's own tickets.
func (s *TicketService) UserTickets(userID string) ([]*models.Ticket, error) {
	recs, err := s.App.FindAllRecords(models.CollectionTickets, dbx.HashExp{"user": userID})
	if err != nil {
		return nil, fmt.Errorf("user tickets: %w", err)
	}

	tickets := make([]*models.Ticket, 0, len(recs))
	for _, rec := range recs {
		tickets = append(tickets, models.TicketFromRecord(rec))
	}
	return tickets, nil
}

// TicketPDF renders a printable ticket with its QR code embedded. Only
// the ticket holder or the event owner may print.
func (s *TicketService) TicketPDF(ticketID, requesterID string) ([]byte, error) {
	rec, err := s.App.FindRecordById(models.CollectionTickets, ticketID)
	if err != nil {
		return nil, status.ErrTicketNotFound
	}
	ticket := models.TicketFromRecord(rec)

	eventRec, err := s.App.FindRecordById(models.CollectionEvents, ticket.EventID)
	if err != nil {
		return nil, status.ErrEventNotFound
	}
	event := models.EventFromRecord(eventRec)

	if ticket.UserID != requesterID && event.UserID != requesterID {
		return nil, status.ErrAccessDenied
	}

	payload := s.GenerateQRPayload(ticket.EventID, ticket.ID, ticket.UniqueCode)
	qrPNG, err := qrcode.Encode(payload, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("ticket pdf: qr encode: %w", err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.Cell(0, 12, event.Name)
	pdf.Ln(14)

	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Location: %s", event.Location))
	pdf.Ln(8)
	pdf.Cell(0, 8, fmt.Sprintf("Date: %s", event.EventDate.Format("Mon, 02 Jan 2006 15:04")))
	pdf.Ln(8)
	pdf.Cell(0, 8, fmt.Sprintf("Ticket: %s", ticket.UniqueCode))
	pdf.Ln(12)

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", opts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("qr", 10, 70, 80, 80, false, opts, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("ticket pdf: output: %w", err)
	}
	return buf.Bytes(), nil
}
