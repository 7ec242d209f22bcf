// Package email sends segment onboarding emails through Resend.
package email

import (
	"context"
	"fmt"
	"time"

	"github.com/fitcoachhq/lead-funnel-go/internal/domain"
	"github.com/resendlabs/resend-go"
	"go.uber.org/zap"
)

// Sender enrolls captured leads into their segment email sequence.
type Sender struct {
	client    *resend.Client
	fromEmail string
	fromName  string
	logger    *zap.Logger
}

// NewSender creates a Resend-backed sender.
func NewSender(apiKey, fromEmail, fromName string, logger *zap.Logger) *Sender {
	return &Sender{
		client:    resend.NewClient(apiKey),
		fromEmail: fromEmail,
		fromName:  fromName,
		logger:    logger,
	}
}

// SendSegmentEmail sends the first email of the lead's segment sequence and
// returns the follow-up entry implied by the segment cadence. The Resend
// SDK has no context variant, so ctx only gates the call upfront.
func (s *Sender) SendSegmentEmail(ctx context.Context, lead *domain.LeadRecord) (*domain.Followup, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tpl := TemplateFor(lead.Segment)

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail),
		To:      []string{lead.Email},
		Subject: tpl.Subject,
		Html:    ComposeHTML(tpl, lead),
	}

	if _, err := s.client.Emails.Send(params); err != nil {
		return nil, &domain.ErrExternalService{Service: "resend", Err: err}
	}

	s.logger.Info("email: segment sequence started",
		zap.String("segment", string(lead.Segment)),
		zap.String("template", tpl.Name),
	)

	return &domain.Followup{
		LeadEmail: lead.Email,
		Segment:   lead.Segment,
		DueAt:     time.Now().Add(tpl.FollowupAfter),
		Template:  tpl.Name,
	}, nil
}

// Template is one segment's opening email plus its follow-up cadence.
type Template struct {
	Name          string
	Subject       string
	Headline      string
	Body          string
	CallToAction  string
	FollowupAfter time.Duration
}

// TemplateFor returns the opening template for a segment. Hot leads get the
// consultation pitch on a 24h cadence; warm a program guide at 48h; cold a
// free-content drip at 72h.
func TemplateFor(segment domain.Segment) Template {
	switch segment {
	case domain.SegmentHot:
		return Template{
			Name:          "hot_consultation",
			Subject:       "Your coaching plan is ready — let's talk",
			Headline:      "You're a great fit for 1-on-1 coaching",
			Body:          "Based on your goals, a coach has reviewed your profile and prepared a personalized plan. Book a free 15-minute call to walk through it.",
			CallToAction:  "Book your free call",
			FollowupAfter: 24 * time.Hour,
		}
	case domain.SegmentWarm:
		return Template{
			Name:          "warm_program_guide",
			Subject:       "The program guide you asked about",
			Headline:      "Find the program that fits your routine",
			Body:          "Here's a breakdown of our programs, what each includes, and how to pick the right starting point for your experience level.",
			CallToAction:  "Compare programs",
			FollowupAfter: 48 * time.Hour,
		}
	default:
		return Template{
			Name:          "cold_free_tips",
			Subject:       "5 training tips to get you started",
			Headline:      "Start with the basics, free",
			Body:          "No program needed yet. These five habits are where every one of our members started, and they cost nothing to try this week.",
			CallToAction:  "Read the tips",
			FollowupAfter: 72 * time.Hour,
		}
	}
}

// ComposeHTML renders the email body. Kept deliberately simple; widget
// styling lives client-side and most mail clients strip CSS anyway.
func ComposeHTML(tpl Template, lead *domain.LeadRecord) string {
	greeting := "Hey there"
	if lead.FirstName != "" {
		greeting = "Hey " + lead.FirstName
	}

	return fmt.Sprintf(`<div style="font-family:sans-serif;max-width:560px;margin:0 auto">
<h2>%s</h2>
<p>%s,</p>
<p>%s</p>
<p><strong>%s</strong></p>
<p style="color:#888;font-size:12px">You're receiving this because you chatted with our coaching assistant.</p>
</div>`, tpl.Headline, greeting, tpl.Body, tpl.CallToAction)
}
