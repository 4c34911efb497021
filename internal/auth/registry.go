package auth

import (
	"sync"

	"storefront/internal/models"
)

// Registry holds every known user. Emails are matched exactly and are
// case-sensitive.
type Registry struct {
	mu     sync.RWMutex
	users  []*models.User
	nextID int
}

func NewRegistry(users []models.User) *Registry {
	r := &Registry{nextID: 1}
	for _, u := range users {
		r.insert(u)
	}
	return r
}

func (r *Registry) insert(u models.User) *models.User {
	user := u.Clone()
	if user.Orders == nil {
		user.Orders = []models.Order{}
	}
	r.users = append(r.users, &user)
	if user.ID >= r.nextID {
		r.nextID = user.ID + 1
	}
	return &user
}

func (r *Registry) FindByEmail(email string) (models.User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if u := r.byEmail(email); u != nil {
		return u.Clone(), true
	}
	return models.User{}, false
}

func (r *Registry) FindByID(id int) (models.User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if u := r.byID(id); u != nil {
		return u.Clone(), true
	}
	return models.User{}, false
}

// Authenticate returns the user whose email and password both match.
// Accounts without a password never authenticate.
func (r *Registry) Authenticate(email, password string) (models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u := r.byEmail(email)
	if u == nil || u.Password == "" || u.Password != password {
		return models.User{}, models.ErrInvalidCredentials
	}
	return u.Clone(), nil
}

// Create adds a user with a fresh id.
func (r *Registry) Create(email, password, name string) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.byEmail(email) != nil {
		return models.User{}, models.ErrEmailTaken
	}
	u := r.insert(models.User{
		ID:       r.nextID,
		Email:    email,
		Password: password,
		Name:     name,
	})
	return u.Clone(), nil
}

// Adopt binds a user restored from a persisted record. A registry entry
// with the same id and email wins and takes the record's order history;
// otherwise the record is added without a password.
func (r *Registry) Adopt(snapshot models.User) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if u := r.byID(snapshot.ID); u != nil {
		if u.Email != snapshot.Email {
			return models.User{}, models.ErrMalformedRecord
		}
		if len(snapshot.Orders) > len(u.Orders) {
			u.Orders = snapshot.Clone().Orders
		}
		return u.Clone(), nil
	}
	if r.byEmail(snapshot.Email) != nil {
		return models.User{}, models.ErrMalformedRecord
	}

	snapshot.Password = ""
	return r.insert(snapshot).Clone(), nil
}

func (r *Registry) AppendOrder(userID int, order models.Order) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u := r.byID(userID)
	if u == nil {
		return models.User{}, models.NewNotFoundError("user", userID)
	}
	u.Orders = append(u.Orders, order.Clone())
	return u.Clone(), nil
}

func (r *Registry) byEmail(email string) *models.User {
	for _, u := range r.users {
		if u.Email == email {
			return u
		}
	}
	return nil
}

func (r *Registry) byID(id int) *models.User {
	for _, u := range r.users {
		if u.ID == id {
			return u
		}
	}
	return nil
}
