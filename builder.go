package onboard

import (
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cloudfive/onboard/jwt"
	"github.com/cloudfive/onboard/kv"
	"github.com/cloudfive/onboard/session"
)

// Builder assembles an Engine from an explicitly constructed Redis client and
// collaborator implementations. Construction is allocation-only; no I/O
// happens until Engine methods are called.
type Builder struct {
	config Config

	redis     redis.UniversalClient
	leadStore LeadStore
	sms       SMSSender
	mailer    Mailer
	auditSink AuditSink

	built bool
}

// New returns a Builder carrying DefaultConfig.
func New() *Builder {
	return &Builder{config: DefaultConfig()}
}

// WithConfig replaces the configuration wholesale.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithRedis injects the expiring key-value backend client. The caller owns
// the client's lifecycle; Engine.Close does not close it.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithLeadStore injects the durable store the sweeper writes abandoned leads
// into.
func (b *Builder) WithLeadStore(store LeadStore) *Builder {
	b.leadStore = store
	return b
}

// WithSMSSender injects the passcode dispatch collaborator.
func (b *Builder) WithSMSSender(sender SMSSender) *Builder {
	b.sms = sender
	return b
}

// WithMailer injects the abandoned-lead notification collaborator.
func (b *Builder) WithMailer(mailer Mailer) *Builder {
	b.mailer = mailer
	return b
}

// WithAuditSink injects the audit event consumer. Without one, events go to
// a no-op sink.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// Build validates configuration and dependencies and returns a ready Engine.
// A Builder is single-use.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	if b.redis == nil {
		return nil, errors.New("redis client is required")
	}
	if err := validateConfig(&b.config); err != nil {
		return nil, err
	}

	payloadValidator, err := newPayloadValidator(b.config.Onboarding.MobilePattern)
	if err != nil {
		return nil, err
	}

	jwtManager, err := jwt.NewManager(jwt.Config{
		TTL:           b.config.JWT.TTL,
		SigningMethod: jwt.SigningMethod(b.config.JWT.SigningMethod),
		PrivateKey:    b.config.JWT.PrivateKey,
		PublicKey:     b.config.JWT.PublicKey,
		Issuer:        b.config.JWT.Issuer,
	})
	if err != nil {
		return nil, err
	}

	sessions := session.NewStore(kv.NewStore(b.redis), b.config.Onboarding.RedisPrefix)

	e := &Engine{
		config:     b.config,
		sessions:   sessions,
		totp:       newTOTPManager(b.config.OTP),
		jwtManager: jwtManager,
		leadStore:  b.leadStore,
		sms:        b.sms,
		mailer:     b.mailer,
		validate:   payloadValidator,
		audit:      newAuditDispatcher(b.config.Audit, b.auditSink),
		metrics:    newMetrics(b.config.Metrics),
		clock:      time.Now,
	}

	b.built = true
	return e, nil
}
