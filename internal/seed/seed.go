// Package seed loads demo data from a YAML fixture into a store. Records
// reference each other by natural keys (user email, property key) because
// row ids are only known after insertion.
package seed

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/listings/pkg/types"
)

// Seed errors.
var (
	ErrUnknownUser     = errors.New("fixture references unknown user")
	ErrUnknownProperty = errors.New("fixture references unknown property")
	ErrDuplicateKey    = errors.New("fixture repeats a property key")
)

// Fixture is the parsed YAML document.
type Fixture struct {
	Users      []types.Registration `yaml:"users"`
	Properties []PropertyFixture    `yaml:"properties"`
	Messages   []MessageFixture     `yaml:"messages"`
	Favorites  []FavoriteFixture    `yaml:"favorites"`
}

// PropertyFixture is a listing plus its photos. Key names the listing for
// favorites; it is not stored.
type PropertyFixture struct {
	Key          string   `yaml:"key"`
	OwnerEmail   string   `yaml:"owner_email"`
	PropertyType string   `yaml:"property_type"`
	Title        string   `yaml:"title"`
	Price        float64  `yaml:"price"`
	Address      string   `yaml:"address"`
	Status       string   `yaml:"status"`
	Contact      string   `yaml:"contact"`
	Description  string   `yaml:"description"`
	Photos       []string `yaml:"photos"`
}

// MessageFixture is sent in file order, so later entries are newer.
type MessageFixture struct {
	From    string `yaml:"from"`
	To      string `yaml:"to"`
	Content string `yaml:"content"`
	Read    bool   `yaml:"read"`
}

// FavoriteFixture bookmarks the property with the given key.
type FavoriteFixture struct {
	UserEmail string `yaml:"user_email"`
	Property  string `yaml:"property"`
}

// Report counts what Apply wrote.
type Report struct {
	UsersCreated int `json:"users_created"`
	UsersSkipped int `json:"users_skipped"`
	Properties   int `json:"properties"`
	Photos       int `json:"photos"`
	Messages     int `json:"messages"`
	Favorites    int `json:"favorites"`
}

// Load parses a fixture. Unknown fields are rejected so typos surface early.
func Load(r io.Reader) (*Fixture, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f Fixture
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, fmt.Errorf("parsing fixture: %w", err)
	}
	return &f, nil
}

// Apply writes the fixture through the store's tables. Users whose email is
// already registered are reused rather than recreated; everything else is
// inserted as new rows. Apply stops at the first error.
func Apply(store types.Store, f *Fixture) (Report, error) {
	var report Report
	userIDs := make(map[string]int64)

	for _, reg := range f.Users {
		u, outcome, err := store.Users().Register(reg)
		switch outcome {
		case types.RegisterCreated:
			report.UsersCreated++
			userIDs[reg.Email] = u.UserID
		case types.RegisterAlreadyExists:
			existing, err := store.Users().Search(types.Filter{"email": reg.Email})
			if err != nil {
				return report, fmt.Errorf("looking up user %s: %w", reg.Email, err)
			}
			if len(existing) != 1 {
				return report, fmt.Errorf("looking up user %s: %w", reg.Email, types.ErrNotFound)
			}
			report.UsersSkipped++
			userIDs[reg.Email] = existing[0].UserID
		default:
			return report, fmt.Errorf("registering %s: %w", reg.Email, err)
		}
	}

	lookup := func(email string) (int64, error) {
		if id, ok := userIDs[email]; ok {
			return id, nil
		}
		users, err := store.Users().Search(types.Filter{"email": email})
		if err != nil {
			return 0, fmt.Errorf("looking up user %s: %w", email, err)
		}
		if len(users) == 0 {
			return 0, fmt.Errorf("%s: %w", email, ErrUnknownUser)
		}
		userIDs[email] = users[0].UserID
		return users[0].UserID, nil
	}

	propertyIDs := make(map[string]int64)
	for _, pf := range f.Properties {
		owner, err := lookup(pf.OwnerEmail)
		if err != nil {
			return report, err
		}
		p := &types.Property{
			PropertyType: pf.PropertyType,
			Title:        pf.Title,
			Price:        pf.Price,
			Address:      pf.Address,
			Status:       pf.Status,
			Contact:      pf.Contact,
			Description:  pf.Description,
			OwnerID:      owner,
		}
		if err := store.Properties().Insert(p); err != nil {
			return report, fmt.Errorf("inserting property %q: %w", pf.Title, err)
		}
		report.Properties++
		if pf.Key != "" {
			if _, dup := propertyIDs[pf.Key]; dup {
				return report, fmt.Errorf("%s: %w", pf.Key, ErrDuplicateKey)
			}
			propertyIDs[pf.Key] = p.PropertyID
		}

		for _, u := range pf.Photos {
			if _, err := store.Photos().Insert(p.PropertyID, u); err != nil {
				return report, fmt.Errorf("inserting photo for %q: %w", pf.Title, err)
			}
			report.Photos++
		}
	}

	for _, mf := range f.Messages {
		from, err := lookup(mf.From)
		if err != nil {
			return report, err
		}
		to, err := lookup(mf.To)
		if err != nil {
			return report, err
		}
		m, err := store.Messages().Send(from, to, mf.Content)
		if err != nil {
			return report, fmt.Errorf("sending message from %s: %w", mf.From, err)
		}
		if mf.Read {
			if err := store.Messages().MarkRead(m.MessageID); err != nil {
				return report, fmt.Errorf("marking message %d read: %w", m.MessageID, err)
			}
		}
		report.Messages++
	}

	for _, ff := range f.Favorites {
		user, err := lookup(ff.UserEmail)
		if err != nil {
			return report, err
		}
		property, ok := propertyIDs[ff.Property]
		if !ok {
			return report, fmt.Errorf("%s: %w", ff.Property, ErrUnknownProperty)
		}
		if err := store.Favorites().Add(user, property); err != nil {
			return report, fmt.Errorf("adding favorite %s: %w", ff.Property, err)
		}
		report.Favorites++
	}
	return report, nil
}
