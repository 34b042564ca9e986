// Package publish implements the simulated on-chain publish path. No
// transaction is ever sent: the publisher mints an id and a plausible
// signature, persists the request and echoes it back.
package publish

import (
	"bytes"
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"log"
	"time"

	"filippo.io/edwards25519"
	"github.com/google/uuid"
	"github.com/mr-tron/base58"

	"chain-oracle/internal/domain"
	"chain-oracle/internal/observability"
	"chain-oracle/internal/resolver"
	"chain-oracle/internal/storage"
)

// signatureLen matches the raw length of an ed25519 transaction signature.
const signatureLen = 64

// Publisher simulates publishing oracle payloads on-chain.
type Publisher struct {
	store   storage.PublicationStore
	metrics *observability.Metrics
	logger  *log.Logger
	rand    io.Reader
	now     func() time.Time
}

// PublisherOptions configures a Publisher.
type PublisherOptions struct {
	Store   storage.PublicationStore
	Metrics *observability.Metrics
	Logger  *log.Logger
}

// NewPublisher creates a Publisher.
func NewPublisher(opts PublisherOptions) *Publisher {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.Writer(), "[publish] ", log.LstdFlags)
	}
	return &Publisher{
		store:   opts.Store,
		metrics: opts.Metrics,
		logger:  logger,
		rand:    rand.Reader,
		now:     time.Now,
	}
}

// Request is one simulated publish request. PublisherKey is optional; when
// set on a solana publish it must be a base58 ed25519 public key whose
// point lies on the curve.
type Request struct {
	Network      string
	Payload      map[string]any
	PublisherKey string
}

// Publish validates the request, fabricates a signature and persists the
// publication with status "simulated". The payload is stored opaque and
// returned exactly as submitted.
func (p *Publisher) Publish(ctx context.Context, req Request) (*domain.Publication, error) {
	network, err := resolver.NormalizeNetwork(req.Network)
	if err != nil {
		return nil, err
	}
	if len(req.Payload) == 0 {
		return nil, &resolver.ValidationError{Field: "payload", Reason: "must not be empty"}
	}
	if req.PublisherKey != "" && network == domain.NetworkSolana {
		if err := validatePublisherKey(req.PublisherKey); err != nil {
			return nil, err
		}
	}

	sig, err := p.fabricateSignature()
	if err != nil {
		return nil, fmt.Errorf("fabricating signature: %w", err)
	}

	pub := &domain.Publication{
		ID:        uuid.NewString(),
		Network:   network,
		Payload:   req.Payload,
		Signature: sig,
		Status:    domain.StatusSimulated,
		CreatedAt: p.now().UnixMilli(),
	}

	if err := p.store.Insert(ctx, pub); err != nil {
		return nil, fmt.Errorf("persisting publication: %w", err)
	}

	if p.metrics != nil {
		p.metrics.PublicationsSimulated.Inc()
	}
	p.logger.Printf("simulated publish %s on %s", pub.ID, pub.Network)
	return pub, nil
}

// Get returns a previously simulated publication by id.
func (p *Publisher) Get(ctx context.Context, id string) (*domain.Publication, error) {
	if id == "" {
		return nil, &resolver.ValidationError{Field: "id", Reason: "must not be empty"}
	}
	return p.store.Get(ctx, id)
}

// fabricateSignature produces a base58 string shaped like a real
// transaction signature.
func (p *Publisher) fabricateSignature() (string, error) {
	raw := make([]byte, signatureLen)
	if _, err := io.ReadFull(p.rand, raw); err != nil {
		return "", err
	}
	return base58.Encode(raw), nil
}

// validatePublisherKey checks that key decodes to a 32-byte ed25519
// public key lying on the curve. SetBytes tolerates non-canonical
// encodings of valid points, so the decoded point is round-tripped
// against the input; real keys are always canonically encoded.
func validatePublisherKey(key string) error {
	raw, err := base58.Decode(key)
	if err != nil {
		return &resolver.ValidationError{Field: "publisherKey", Reason: "not valid base58"}
	}
	if len(raw) != 32 {
		return &resolver.ValidationError{Field: "publisherKey", Reason: "must decode to 32 bytes"}
	}
	point, err := new(edwards25519.Point).SetBytes(raw)
	if err != nil {
		return &resolver.ValidationError{Field: "publisherKey", Reason: "not a point on the ed25519 curve"}
	}
	if !bytes.Equal(point.Bytes(), raw) {
		return &resolver.ValidationError{Field: "publisherKey", Reason: "not a canonical key encoding"}
	}
	return nil
}
