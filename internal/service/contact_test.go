package service_test

import (
	"context"
	"testing"

	"github.com/linemk/campuskart/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContactService_ContactBuyer(t *testing.T) {
	m := &fakeMailer{}
	svc := service.NewContactService(newTestLogger(), m)

	err := svc.ContactBuyer(context.Background(), service.ContactInput{
		SellerEmail:  "sam@campus.edu",
		BuyerEmail:   "asha@campus.edu",
		ProductTitle: "<Lamp>",
	})
	require.NoError(t, err)
	require.Len(t, m.sent, 1)

	msg := m.sent[0]
	assert.Equal(t, "asha@campus.edu", msg.To)
	assert.Equal(t, "sam@campus.edu", msg.ReplyTo)
	assert.Equal(t, "Regarding your purchase of <Lamp>", msg.Subject)
	assert.Contains(t, msg.HTML, "&lt;Lamp&gt;", "title must be escaped in the HTML body")
	assert.NotContains(t, msg.HTML, "<Lamp>")
}

func TestContactService_ContactBuyer_InvalidEmails(t *testing.T) {
	m := &fakeMailer{}
	svc := service.NewContactService(newTestLogger(), m)

	err := svc.ContactBuyer(context.Background(), service.ContactInput{SellerEmail: "sam", BuyerEmail: ""})
	var ve *service.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.ElementsMatch(t, []string{"sellerEmail", "buyerEmail"}, ve.Fields)
	assert.Empty(t, m.sent)
}

func TestContactService_ContactBuyer_MailerFailure(t *testing.T) {
	m := &fakeMailer{err: errBoom}
	svc := service.NewContactService(newTestLogger(), m)

	err := svc.ContactBuyer(context.Background(), service.ContactInput{SellerEmail: "sam@campus.edu", BuyerEmail: "asha@campus.edu"})
	assert.ErrorIs(t, err, errBoom)
	assert.False(t, service.IsValidation(err))
}
