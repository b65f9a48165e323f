package contactbook

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GetContact returns one contact of the session token's user. The cache key
// is scoped to the acting user, so a hit can only ever serve a contact that
// user was already allowed to read; any other caller misses and goes through
// the ownership check against the store.
func (e *Engine) GetContact(ctx context.Context, sessionToken, contactID string) (Contact, error) {
	user, claims, err := e.authorize(ctx, sessionToken)
	if err != nil {
		return Contact{}, err
	}

	var key string
	if e.cache != nil {
		key = e.cache.ContactKey(user.ID, contactID)
		var cached Contact
		if e.cacheGet(ctx, key, &cached) {
			e.metricInc(MetricContactRead)
			return cached, nil
		}
	}

	contact, err := e.contacts.FindByID(ctx, contactID)
	if err != nil {
		return Contact{}, err
	}
	if contact.OwnerID != user.ID {
		e.metricInc(MetricContactDenied)
		return Contact{}, ErrForbidden
	}

	e.cacheSet(ctx, key, contact, cacheTTL(claims))
	e.metricInc(MetricContactRead)

	return contact, nil
}

// ListContacts returns every contact owned by the session token's user.
func (e *Engine) ListContacts(ctx context.Context, sessionToken string) ([]Contact, error) {
	user, claims, err := e.authorize(ctx, sessionToken)
	if err != nil {
		return nil, err
	}

	var key string
	if e.cache != nil {
		key = e.cache.OwnerListKey(user.ID)
		var cached []Contact
		if e.cacheGet(ctx, key, &cached) {
			e.metricInc(MetricContactRead)
			return cached, nil
		}
	}

	contacts, err := e.contacts.FindByOwner(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if contacts == nil {
		contacts = []Contact{}
	}

	e.cacheSet(ctx, key, contacts, cacheTTL(claims))
	e.metricInc(MetricContactRead)

	return contacts, nil
}

// ListAllContacts returns every contact across all owners. Only the admin
// role may call it; the role is taken from the store record, not the token,
// so a demotion takes effect on the next request.
func (e *Engine) ListAllContacts(ctx context.Context, sessionToken string) ([]Contact, error) {
	user, claims, err := e.authorize(ctx, sessionToken)
	if err != nil {
		return nil, err
	}
	if !user.Role.CanListAll() {
		e.metricInc(MetricContactDenied)
		return nil, ErrForbidden
	}

	var key string
	if e.cache != nil {
		key = e.cache.AllKey()
		var cached []Contact
		if e.cacheGet(ctx, key, &cached) {
			e.metricInc(MetricContactRead)
			return cached, nil
		}
	}

	contacts, err := e.contacts.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	if contacts == nil {
		contacts = []Contact{}
	}

	e.cacheSet(ctx, key, contacts, cacheTTL(claims))
	e.metricInc(MetricContactRead)

	return contacts, nil
}

// CreateContact stores a new contact owned by the session token's user and
// invalidates the listings it appears in.
func (e *Engine) CreateContact(ctx context.Context, sessionToken string, in ContactInput) (Contact, error) {
	user, _, err := e.authorize(ctx, sessionToken)
	if err != nil {
		return Contact{}, err
	}

	contact := Contact{
		ID:      uuid.NewString(),
		OwnerID: user.ID,
	}
	in.apply(&contact)

	if err := e.contacts.Create(ctx, contact); err != nil {
		return Contact{}, err
	}

	e.cacheEvictContact(ctx, user.ID, contact.ID)
	e.metricInc(MetricContactMutation)
	e.log.Info("contact created",
		zap.String("owner_id", user.ID),
		zap.String("contact_id", contact.ID),
	)

	return contact, nil
}

// UpdateContact overwrites the mutable fields of an owned contact. Identity
// and ownership are preserved regardless of input.
func (e *Engine) UpdateContact(ctx context.Context, sessionToken, contactID string, in ContactInput) (Contact, error) {
	user, _, err := e.authorize(ctx, sessionToken)
	if err != nil {
		return Contact{}, err
	}

	contact, err := e.contacts.FindByID(ctx, contactID)
	if err != nil {
		return Contact{}, err
	}
	if contact.OwnerID != user.ID {
		e.metricInc(MetricContactDenied)
		return Contact{}, ErrForbidden
	}

	in.apply(&contact)

	if err := e.contacts.Update(ctx, contact); err != nil {
		return Contact{}, err
	}

	e.cacheEvictContact(ctx, user.ID, contact.ID)
	e.metricInc(MetricContactMutation)

	return contact, nil
}

// DeleteContact removes an owned contact. Unlike reads, the ownership check
// here is load-bearing even for ids the caller merely guessed, so it runs
// before any destructive call.
func (e *Engine) DeleteContact(ctx context.Context, sessionToken, contactID string) error {
	user, _, err := e.authorize(ctx, sessionToken)
	if err != nil {
		return err
	}

	contact, err := e.contacts.FindByID(ctx, contactID)
	if err != nil {
		return err
	}
	if contact.OwnerID != user.ID {
		e.metricInc(MetricContactDenied)
		return ErrForbidden
	}

	if err := e.contacts.Delete(ctx, contactID); err != nil {
		if errors.Is(err, ErrNotFound) {
			// Deleted concurrently; the end state is what was asked for.
			e.cacheEvictContact(ctx, user.ID, contactID)
			return nil
		}
		return err
	}

	e.cacheEvictContact(ctx, user.ID, contactID)
	e.metricInc(MetricContactMutation)
	e.log.Info("contact deleted",
		zap.String("owner_id", user.ID),
		zap.String("contact_id", contactID),
	)

	return nil
}
