package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"propertyflow-backend/internal/line"
	"propertyflow-backend/internal/model"
	"propertyflow-backend/internal/render"
	"propertyflow-backend/internal/repository"
	"propertyflow-backend/internal/storage"

	"github.com/google/uuid"
	"github.com/line/line-bot-sdk-go/v7/linebot"
	"gorm.io/gorm"
)

const pushImageURLTTL = 24 * time.Hour

// --- DTOs ---

type SaveSlipRequest struct {
	MessageID string `json:"message_id" binding:"required"`
	InvoiceID string `json:"invoice_id" binding:"required"`
}

type LiffSlipRequest struct {
	LineUserID  string `json:"line_user_id" binding:"required"`
	InvoiceID   string `json:"invoice_id"`
	Image       string `json:"image" binding:"required"` // base64, optionally a data URL
	ContentType string `json:"content_type"`
}

type LineContactResponse struct {
	ID          string  `json:"id"`
	LineUserID  string  `json:"line_user_id"`
	DisplayName string  `json:"display_name"`
	PictureURL  string  `json:"picture_url,omitempty"`
	TenantID    *string `json:"tenant_id"`
	TenantName  string  `json:"tenant_name,omitempty"`
	Followed    bool    `json:"followed"`
	UpdatedAt   string  `json:"updated_at"`
}

type LineMessageResponse struct {
	ID          string `json:"id"`
	Direction   string `json:"direction"`
	MessageType string `json:"message_type"`
	Text        string `json:"text,omitempty"`
	StorageKey  string `json:"storage_key,omitempty"`
	CreatedAt   string `json:"created_at"`
}

// --- Interface ---

type LineService interface {
	// HandleWebhook processes platform events: follow/unfollow keep the
	// contact list current, text messages are archived, and an image from
	// a contact linked to a tenant with an open invoice is captured as a
	// payment slip automatically.
	HandleWebhook(ctx context.Context, r *http.Request) error
	// SaveSlip downloads a chat image by its platform message ID and
	// records it as a slip on the given invoice.
	SaveSlip(ctx context.Context, ownerID uuid.UUID, req SaveSlipRequest) (*PaymentResponse, error)
	// SubmitLiffSlip ingests a slip posted from the LIFF page. When no
	// invoice is given the contact's open invoice is used.
	SubmitLiffSlip(ctx context.Context, req LiffSlipRequest) (*PaymentResponse, error)
	// NotifyInvoice renders the invoice card, uploads it and pushes it to
	// the tenant's chat together with a short text summary.
	NotifyInvoice(ctx context.Context, ownerID, invoiceID uuid.UUID, lang string) error
	// NotifyPaymentConfirmed pushes a plain-text confirmation after a
	// payment against the invoice was verified.
	NotifyPaymentConfirmed(ctx context.Context, ownerID, invoiceID uuid.UUID) error
	ListContacts(ctx context.Context, page, limit int) ([]LineContactResponse, int64, error)
	ListMessages(ctx context.Context, contactID uuid.UUID, page, limit int) ([]LineMessageResponse, int64, error)
}

type lineService struct {
	messenger   line.Messenger
	lineRepo    repository.LineRepository
	tenantRepo  repository.TenantRepository
	invoiceRepo repository.InvoiceRepository
	paymentSvc  PaymentService
	renderer    render.Renderer
	store       storage.ObjectStorage
}

func NewLineService(
	messenger line.Messenger,
	lineRepo repository.LineRepository,
	tenantRepo repository.TenantRepository,
	invoiceRepo repository.InvoiceRepository,
	paymentSvc PaymentService,
	renderer render.Renderer,
	store storage.ObjectStorage,
) LineService {
	return &lineService{
		messenger:   messenger,
		lineRepo:    lineRepo,
		tenantRepo:  tenantRepo,
		invoiceRepo: invoiceRepo,
		paymentSvc:  paymentSvc,
		renderer:    renderer,
		store:       store,
	}
}

// --- Webhook ---

func (s *lineService) HandleWebhook(ctx context.Context, r *http.Request) error {
	events, err := s.messenger.ParseWebhook(r)
	if err != nil {
		return fmt.Errorf("failed to parse webhook: %w", err)
	}

	for _, event := range events {
		if event.Source == nil || event.Source.UserID == "" {
			continue
		}
		userID := event.Source.UserID

		switch event.Type {
		case linebot.EventTypeFollow:
			if err := s.handleFollow(ctx, userID); err != nil {
				log.Printf("line webhook: follow %s: %v", userID, err)
			}
		case linebot.EventTypeUnfollow:
			if err := s.handleUnfollow(ctx, userID); err != nil {
				log.Printf("line webhook: unfollow %s: %v", userID, err)
			}
		case linebot.EventTypeMessage:
			if err := s.handleMessage(ctx, userID, event); err != nil {
				log.Printf("line webhook: message from %s: %v", userID, err)
			}
		}
	}
	return nil
}

func (s *lineService) handleFollow(ctx context.Context, userID string) error {
	contact := &model.LineContact{LineUserID: userID, Followed: true}

	if profile, err := s.messenger.GetProfile(userID); err == nil {
		contact.DisplayName = profile.DisplayName
		contact.PictureURL = profile.PictureURL
	} else {
		log.Printf("line webhook: profile fetch for %s: %v", userID, err)
	}

	// A tenant record carrying this LINE user ID links automatically.
	if tenant, err := s.tenantRepo.FindByLineUserID(ctx, userID); err == nil {
		contact.TenantID = &tenant.ID
	}

	return s.lineRepo.UpsertContact(ctx, contact)
}

func (s *lineService) handleUnfollow(ctx context.Context, userID string) error {
	contact, err := s.lineRepo.FindContactByLineUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	contact.Followed = false
	return s.lineRepo.UpdateContact(ctx, contact)
}

func (s *lineService) handleMessage(ctx context.Context, userID string, event *linebot.Event) error {
	contact, err := s.ensureContact(ctx, userID)
	if err != nil {
		return err
	}

	switch msg := event.Message.(type) {
	case *linebot.TextMessage:
		return s.lineRepo.SaveMessage(ctx, &model.LineMessage{
			LineContactID: contact.ID,
			Direction:     model.DirectionIn,
			MessageType:   "text",
			Text:          msg.Text,
		})
	case *linebot.ImageMessage:
		record := &model.LineMessage{
			LineContactID: contact.ID,
			Direction:     model.DirectionIn,
			MessageType:   "image",
			MessageID:     msg.ID,
		}
		if key, captureErr := s.captureSlip(ctx, contact, msg.ID); captureErr != nil {
			log.Printf("line webhook: slip capture for %s: %v", userID, captureErr)
		} else {
			record.StorageKey = key
		}
		return s.lineRepo.SaveMessage(ctx, record)
	case *linebot.StickerMessage:
		return s.lineRepo.SaveMessage(ctx, &model.LineMessage{
			LineContactID: contact.ID,
			Direction:     model.DirectionIn,
			MessageType:   "sticker",
		})
	default:
		return nil
	}
}

func (s *lineService) ensureContact(ctx context.Context, userID string) (*model.LineContact, error) {
	contact, err := s.lineRepo.FindContactByLineUserID(ctx, userID)
	if err == nil {
		return contact, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if followErr := s.handleFollow(ctx, userID); followErr != nil {
		return nil, followErr
	}
	return s.lineRepo.FindContactByLineUserID(ctx, userID)
}

// captureSlip turns a chat image into a payment slip when the contact is
// linked to a tenant who currently has an open invoice. Returns the
// storage key of the captured slip.
func (s *lineService) captureSlip(ctx context.Context, contact *model.LineContact, messageID string) (string, error) {
	if contact.TenantID == nil {
		return "", nil
	}
	invoice, err := s.invoiceRepo.FindOpenByTenant(ctx, *contact.TenantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}

	data, contentType, err := s.messenger.GetMessageContent(messageID)
	if err != nil {
		return "", err
	}

	payment, err := s.paymentSvc.IngestSlip(ctx, invoice.ID, data, contentType, contact.DisplayName, model.SlipLineChat)
	if err != nil {
		return "", err
	}
	if len(payment.Slips) == 0 {
		return "", nil
	}
	return payment.Slips[len(payment.Slips)-1].StorageKey, nil
}

// --- Owner-directed ingestion ---

func (s *lineService) SaveSlip(ctx context.Context, ownerID uuid.UUID, req SaveSlipRequest) (*PaymentResponse, error) {
	invoiceID, err := uuid.Parse(req.InvoiceID)
	if err != nil {
		return nil, fmt.Errorf("invalid invoice_id: %w", err)
	}
	if _, err := s.invoiceRepo.FindOwned(ctx, invoiceID, ownerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("invoice %s: %w", req.InvoiceID, ErrNotFound)
		}
		return nil, err
	}

	data, contentType, err := s.messenger.GetMessageContent(req.MessageID)
	if err != nil {
		return nil, err
	}

	return s.paymentSvc.IngestSlip(ctx, invoiceID, data, contentType, "", model.SlipManual)
}

func (s *lineService) SubmitLiffSlip(ctx context.Context, req LiffSlipRequest) (*PaymentResponse, error) {
	contact, err := s.lineRepo.FindContactByLineUserID(ctx, req.LineUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("contact %s: %w", req.LineUserID, ErrNotFound)
		}
		return nil, err
	}

	var invoiceID uuid.UUID
	if req.InvoiceID != "" {
		invoiceID, err = uuid.Parse(req.InvoiceID)
		if err != nil {
			return nil, fmt.Errorf("invalid invoice_id: %w", err)
		}
	} else {
		if contact.TenantID == nil {
			return nil, fmt.Errorf("contact is not linked to a tenant: %w", ErrInvalidState)
		}
		invoice, findErr := s.invoiceRepo.FindOpenByTenant(ctx, *contact.TenantID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("no open invoice for tenant: %w", ErrNotFound)
			}
			return nil, findErr
		}
		invoiceID = invoice.ID
	}

	data, contentType, err := decodeImagePayload(req.Image, req.ContentType)
	if err != nil {
		return nil, err
	}

	return s.paymentSvc.IngestSlip(ctx, invoiceID, data, contentType, contact.DisplayName, model.SlipLiff)
}

// --- Push notifications ---

func (s *lineService) NotifyInvoice(ctx context.Context, ownerID, invoiceID uuid.UUID, lang string) error {
	invoice, err := s.invoiceRepo.FindOwned(ctx, invoiceID, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("invoice %s: %w", invoiceID, ErrNotFound)
		}
		return err
	}

	to, err := s.tenantChatID(ctx, invoice.TenantID)
	if err != nil {
		return err
	}

	card := render.InvoiceCard(invoice, invoice.Project, lang)
	png, err := s.renderer.RenderPNG(ctx, card)
	if err != nil {
		return fmt.Errorf("failed to render invoice card: %w", err)
	}

	key := storage.CardKey(invoice.ID, time.Now())
	if err := s.store.Upload(ctx, key, "image/png", png); err != nil {
		return fmt.Errorf("failed to upload invoice card: %w", err)
	}
	url, err := s.store.PresignGet(ctx, key, pushImageURLTTL)
	if err != nil {
		return fmt.Errorf("failed to presign invoice card: %w", err)
	}

	if err := s.messenger.PushImage(to, url, url); err != nil {
		return err
	}
	text := fmt.Sprintf("Invoice %s for %s is ready. Amount due: %s THB, due %s.",
		invoice.InvoiceNo, invoice.BillingMonth,
		invoice.TotalAmount.StringFixed(2), invoice.DueDate.Format("2006-01-02"))
	if lang == "th" {
		text = fmt.Sprintf("ใบแจ้งหนี้ %s ประจำเดือน %s ยอดชำระ %s บาท ครบกำหนด %s",
			invoice.InvoiceNo, invoice.BillingMonth,
			invoice.TotalAmount.StringFixed(2), invoice.DueDate.Format("2006-01-02"))
	}
	return s.messenger.PushText(to, text)
}

func (s *lineService) NotifyPaymentConfirmed(ctx context.Context, ownerID, invoiceID uuid.UUID) error {
	invoice, err := s.invoiceRepo.FindOwned(ctx, invoiceID, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("invoice %s: %w", invoiceID, ErrNotFound)
		}
		return err
	}

	to, err := s.tenantChatID(ctx, invoice.TenantID)
	if err != nil {
		return err
	}

	text := fmt.Sprintf("Payment received for invoice %s. Paid %s of %s THB.",
		invoice.InvoiceNo, invoice.PaidAmount.StringFixed(2), invoice.TotalAmount.StringFixed(2))
	if invoice.Status == model.InvoicePaid {
		text = fmt.Sprintf("Payment received, invoice %s is fully paid. Thank you.", invoice.InvoiceNo)
	}
	return s.messenger.PushText(to, text)
}

// tenantChatID resolves the LINE user ID to push to for a tenant.
func (s *lineService) tenantChatID(ctx context.Context, tenantID uuid.UUID) (string, error) {
	tenant, err := s.tenantRepo.FindByID(ctx, tenantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("tenant %s: %w", tenantID, ErrNotFound)
		}
		return "", err
	}
	if tenant.LineUserID == "" {
		return "", fmt.Errorf("tenant has no linked LINE account: %w", ErrInvalidState)
	}
	return tenant.LineUserID, nil
}

// --- Listing ---

func (s *lineService) ListContacts(ctx context.Context, page, limit int) ([]LineContactResponse, int64, error) {
	contacts, total, err := s.lineRepo.ListContacts(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]LineContactResponse, 0, len(contacts))
	for i := range contacts {
		res = append(res, toLineContactResponse(&contacts[i]))
	}
	return res, total, nil
}

func (s *lineService) ListMessages(ctx context.Context, contactID uuid.UUID, page, limit int) ([]LineMessageResponse, int64, error) {
	messages, total, err := s.lineRepo.ListMessages(ctx, contactID, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]LineMessageResponse, 0, len(messages))
	for i := range messages {
		m := &messages[i]
		res = append(res, LineMessageResponse{
			ID:          m.ID.String(),
			Direction:   m.Direction,
			MessageType: m.MessageType,
			Text:        m.Text,
			StorageKey:  m.StorageKey,
			CreatedAt:   m.CreatedAt.Format(time.RFC3339),
		})
	}
	return res, total, nil
}

func toLineContactResponse(c *model.LineContact) LineContactResponse {
	resp := LineContactResponse{
		ID:          c.ID.String(),
		LineUserID:  c.LineUserID,
		DisplayName: c.DisplayName,
		PictureURL:  c.PictureURL,
		Followed:    c.Followed,
		UpdatedAt:   c.UpdatedAt.Format(time.RFC3339),
	}
	if c.TenantID != nil {
		v := c.TenantID.String()
		resp.TenantID = &v
	}
	if c.Tenant != nil {
		resp.TenantName = c.Tenant.Name
	}
	return resp
}
