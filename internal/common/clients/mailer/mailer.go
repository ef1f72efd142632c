package mailer

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"html/template"
	"strings"

	"github.com/leonid6372/crypto-tracker/internal/common/config"
	"github.com/leonid6372/crypto-tracker/internal/common/domain"
	"github.com/leonid6372/crypto-tracker/pkg/errs"
	"github.com/leonid6372/crypto-tracker/pkg/format"
	"github.com/leonid6372/crypto-tracker/pkg/log"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

//go:embed report.html
var reportTemplate string

var reportTmpl = template.Must(template.New("report").Funcs(template.FuncMap{
	"money":         format.Money,
	"signedMoney":   format.SignedMoney,
	"signedPercent": format.SignedPercent,
	"upper":         strings.ToUpper,
	"positive":      func(v float64) bool { return v >= 0 },
}).Parse(reportTemplate))

type sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// Client delivers digest reports over SMTP.
type Client struct {
	smtp sender
	from string
}

func NewClient(cfg *config.SMTP) (*Client, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	smtp, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, errs.NewStack(err)
	}

	return &Client{
		smtp: smtp,
		from: cfg.Sender(),
	}, nil
}

// Send emails report to the user. Opt-in is decided by whoever picks the
// recipients; users without an address are skipped.
func (c *Client) Send(ctx context.Context, user *domain.User, report *domain.Report, kind domain.DigestKind) (bool, error) {
	if user.Email == "" {
		return false, nil
	}

	msg, err := c.buildMessage(user, report, kind)
	if err != nil {
		return false, err
	}

	if err := c.smtp.DialAndSendWithContext(ctx, msg); err != nil {
		return false, errs.NewStack(fmt.Errorf("send %s report to %s: %w", kind, user.Email, err))
	}

	log.Info("report email sent", zap.String("kind", kind.String()), zap.String("email", user.Email))

	return true, nil
}

func (c *Client) buildMessage(user *domain.User, report *domain.Report, kind domain.DigestKind) (*mail.Msg, error) {
	body, err := renderReport(user, report, kind)
	if err != nil {
		return nil, err
	}

	msg := mail.NewMsg()
	if err := msg.From(c.from); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", c.from, err)
	}
	if err := msg.To(user.Email); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", user.Email, err)
	}

	msg.Subject(Subject(report, kind))
	msg.SetBodyString(mail.TypeTextHTML, body)

	return msg, nil
}

// Subject formats e.g. "📈 Daily Crypto Report - +$4,000.00 (+20.00%)".
func Subject(report *domain.Report, kind domain.DigestKind) string {
	return fmt.Sprintf("📈 %s Crypto Report - %s (%s)",
		title(kind),
		format.SignedMoney(report.TotalProfit),
		format.SignedPercent(report.ProfitPercentage),
	)
}

func renderReport(user *domain.User, report *domain.Report, kind domain.DigestKind) (string, error) {
	var buf bytes.Buffer

	err := reportTmpl.Execute(&buf, map[string]any{
		"Title":  title(kind),
		"Weekly": kind == domain.DigestWeekly,
		"User":   user,
		"Report": report,
	})
	if err != nil {
		return "", fmt.Errorf("render %s report: %w", kind, err)
	}

	return buf.String(), nil
}

func title(kind domain.DigestKind) string {
	if kind == domain.DigestWeekly {
		return "Weekly"
	}
	return "Daily"
}
