// Package notify renders account mail and hands it to a transport.
package notify

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"time"

	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

type Intent string

const (
	IntentVerification   Intent = "verification"
	IntentRegistration   Intent = "registration"
	IntentChangePassword Intent = "changePassword"
)

var ErrUnknownIntent = errors.New("unknown mail intent")

type intentDef struct {
	file    string
	title   string
	subject string
}

var intents = map[Intent]intentDef{
	IntentVerification: {
		file:    "verification.html",
		title:   "Verify Your Email",
		subject: "Verify your email to activate your %s account",
	},
	IntentRegistration: {
		file:    "registration.html",
		title:   "Verification Successful",
		subject: "Your %s account has been verified successfully",
	},
	IntentChangePassword: {
		file:    "change_password.html",
		title:   "Password Changed",
		subject: "Your %s password was changed",
	},
}

// Message is what the account flows know about a recipient. Link is set for
// verification mail, DefaultSecret for the registration confirmation.
type Message struct {
	AccountID        string
	To               string
	Name             string
	VerificationLink string
	DefaultSecret    string
}

// Mail is a rendered message ready for a transport.
type Mail struct {
	To      string
	Subject string
	HTML    string
	// Link is carried separately so transports that only log can show it
	Link string
}

type Receipt struct {
	Intent    Intent
	To        string
	Transport string
	SentAt    time.Time
}

type Sender interface {
	Name() string
	Send(ctx context.Context, mail Mail) error
}

// Notifier is the dependency the account flows take.
type Notifier interface {
	Dispatch(ctx context.Context, intent Intent, msg Message) (Receipt, error)
}

type templateData struct {
	App    string
	Title  string
	Name   string
	Link   string
	Secret string
	Year   int
}

type Renderer struct {
	app  string
	sets map[Intent]*template.Template
	now  func() time.Time
}

func NewRenderer(app string) (*Renderer, error) {
	r := &Renderer{app: app, sets: make(map[Intent]*template.Template, len(intents)), now: time.Now}
	for intent, def := range intents {
		t, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+def.file)
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", intent, err)
		}
		r.sets[intent] = t
	}
	return r, nil
}

func (r *Renderer) Render(intent Intent, msg Message) (Mail, error) {
	def, ok := intents[intent]
	if !ok {
		return Mail{}, fmt.Errorf("%w: %q", ErrUnknownIntent, intent)
	}

	data := templateData{
		App:    r.app,
		Title:  def.title,
		Name:   msg.Name,
		Link:   msg.VerificationLink,
		Secret: msg.DefaultSecret,
		Year:   r.now().Year(),
	}

	var buf bytes.Buffer
	if err := r.sets[intent].ExecuteTemplate(&buf, "layout", data); err != nil {
		return Mail{}, fmt.Errorf("render %s mail: %w", intent, err)
	}

	return Mail{
		To:      msg.To,
		Subject: fmt.Sprintf(def.subject, r.app),
		HTML:    buf.String(),
		Link:    msg.VerificationLink,
	}, nil
}

type Dispatcher struct {
	renderer *Renderer
	sender   Sender
	log      *zap.Logger
}

func NewDispatcher(renderer *Renderer, sender Sender, log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		renderer: renderer,
		sender:   sender,
		log:      log.With(zap.String("component", "notify")),
	}
}

func (d *Dispatcher) Dispatch(ctx context.Context, intent Intent, msg Message) (Receipt, error) {
	mail, err := d.renderer.Render(intent, msg)
	if err != nil {
		return Receipt{}, err
	}

	if err := d.sender.Send(ctx, mail); err != nil {
		d.log.Error("Failed to send mail",
			zap.Error(err),
			zap.String("intent", string(intent)),
			zap.String("account_id", msg.AccountID),
		)
		return Receipt{}, fmt.Errorf("send %s mail: %w", intent, err)
	}

	d.log.Info("Mail sent",
		zap.String("intent", string(intent)),
		zap.String("account_id", msg.AccountID),
		zap.String("transport", d.sender.Name()),
	)

	return Receipt{
		Intent:    intent,
		To:        msg.To,
		Transport: d.sender.Name(),
		SentAt:    time.Now(),
	}, nil
}
