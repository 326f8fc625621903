package service

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"

	"github.com/linemk/campuskart/internal/mailer"
)

type ContactServiceInterface interface {
	ContactBuyer(ctx context.Context, in ContactInput) error
}

type ContactInput struct {
	SellerEmail  string `json:"sellerEmail" validate:"required,email"`
	BuyerEmail   string `json:"buyerEmail" validate:"required,email"`
	ProductTitle string `json:"productTitle" validate:"max=200"`
}

// ContactService отправляет покупателю письмо от имени продавца.
// Ответ покупателя уходит продавцу через Reply-To.
type ContactService struct {
	log    *slog.Logger
	mailer mailer.Mailer
}

func NewContactService(log *slog.Logger, m mailer.Mailer) *ContactService {
	return &ContactService{log: log, mailer: m}
}

func (s *ContactService) ContactBuyer(ctx context.Context, in ContactInput) error {
	const op = "service.ContactService.ContactBuyer"
	in.SellerEmail = strings.TrimSpace(in.SellerEmail)
	in.BuyerEmail = strings.TrimSpace(in.BuyerEmail)
	logger := s.log.With(
		slog.String("op", op),
		slog.String("sellerEmail", in.SellerEmail),
		slog.String("buyerEmail", in.BuyerEmail),
	)

	if err := validateInput(op, in); err != nil {
		logger.Warn("invalid contact input", slog.Any("error", err))
		return err
	}

	title := strings.TrimSpace(in.ProductTitle)
	if title == "" {
		title = "your item"
	}

	msg := mailer.Message{
		FromName:    "CampusKart",
		To:          in.BuyerEmail,
		ReplyTo:     in.SellerEmail,
		ReplyToName: "Seller",
		Subject:     fmt.Sprintf("Regarding your purchase of %s", title),
		HTML:        contactBody(in.SellerEmail, title),
	}

	if err := s.mailer.Send(ctx, msg); err != nil {
		logger.Error("failed to send email", slog.Any("error", err))
		return fmt.Errorf("%s: failed to send email: %w", op, err)
	}

	logger.Info("email sent")
	return nil
}

func contactBody(sellerEmail, title string) string {
	var b strings.Builder
	b.WriteString("<div>")
	b.WriteString("<h2>Hello!</h2>")
	fmt.Fprintf(&b, "<p>The seller of <strong>%s</strong> would like to get in touch with you about your purchase.</p>", html.EscapeString(title))
	fmt.Fprintf(&b, "<p>You can reply to this email or write directly to <a href=\"mailto:%[1]s\">%[1]s</a>.</p>", html.EscapeString(sellerEmail))
	b.WriteString("<p>Thank you for using CampusKart.</p>")
	b.WriteString("</div>")
	return b.String()
}
