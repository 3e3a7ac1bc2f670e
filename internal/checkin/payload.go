package checkin

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/Spok95/gymflow/internal/models"
)

var ErrInvalidPayload = errors.New("invalid check-in payload")

// Identity — кто и куда пришёл, в терминах партнёра.
type Identity struct {
	Partner   models.Partner
	GymCode   string
	UserToken string
	Name      string
	Email     string
	Phone     string
}

type gympassPayload struct {
	EventType string `json:"event_type"`
	EventData struct {
		User struct {
			UniqueToken string `json:"unique_token"`
			FirstName   string `json:"first_name"`
			LastName    string `json:"last_name"`
			Name        string `json:"name"`
			Email       string `json:"email"`
			PhoneNumber string `json:"phone_number"`
		} `json:"user"`
		Gym struct {
			ID json.RawMessage `json:"id"`
		} `json:"gym"`
	} `json:"event_data"`
}

type totalpassPayload struct {
	Event string `json:"event"`
	Data  struct {
		GymCode string `json:"gym_code"`
		User    struct {
			Token string `json:"token"`
			Name  string `json:"name"`
			Email string `json:"email"`
			Phone string `json:"phone"`
		} `json:"user"`
	} `json:"data"`
}

// Decode — разбирает тело вебхука партнёра. Партнёры шлют JSON или
// x-www-form-urlencoded (поле payload с JSON либо плоские поля).
func Decode(partner models.Partner, contentType string, body []byte) (Identity, error) {
	raw := body
	if strings.HasPrefix(strings.ToLower(contentType), "application/x-www-form-urlencoded") {
		form, err := url.ParseQuery(string(body))
		if err != nil {
			return Identity{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		if p := form.Get("payload"); p != "" {
			raw = []byte(p)
		} else {
			return fromForm(partner, form)
		}
	}

	var id Identity
	var err error
	switch partner {
	case models.PartnerGympass:
		id, err = decodeGympass(raw)
	case models.PartnerTotalPass:
		id, err = decodeTotalPass(raw)
	default:
		return Identity{}, fmt.Errorf("%w: unknown partner %q", ErrInvalidPayload, partner)
	}
	if err != nil {
		return Identity{}, err
	}
	return id, id.validate()
}

func decodeGympass(raw []byte) (Identity, error) {
	var p gympassPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	u := p.EventData.User
	name := strings.TrimSpace(u.Name)
	if name == "" {
		name = strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
	}
	return Identity{
		Partner:   models.PartnerGympass,
		GymCode:   rawScalar(p.EventData.Gym.ID),
		UserToken: strings.TrimSpace(u.UniqueToken),
		Name:      name,
		Email:     strings.TrimSpace(u.Email),
		Phone:     strings.TrimSpace(u.PhoneNumber),
	}, nil
}

func decodeTotalPass(raw []byte) (Identity, error) {
	var p totalpassPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return Identity{
		Partner:   models.PartnerTotalPass,
		GymCode:   strings.TrimSpace(p.Data.GymCode),
		UserToken: strings.TrimSpace(p.Data.User.Token),
		Name:      strings.TrimSpace(p.Data.User.Name),
		Email:     strings.TrimSpace(p.Data.User.Email),
		Phone:     strings.TrimSpace(p.Data.User.Phone),
	}, nil
}

func fromForm(partner models.Partner, form url.Values) (Identity, error) {
	if _, err := models.ParsePartner(string(partner)); err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	first := func(keys ...string) string {
		for _, k := range keys {
			if v := strings.TrimSpace(form.Get(k)); v != "" {
				return v
			}
		}
		return ""
	}
	id := Identity{
		Partner:   partner,
		GymCode:   first("gym_id", "gym_code"),
		UserToken: first("unique_token", "user_token", "token"),
		Name:      first("name", "user_name"),
		Email:     first("email"),
		Phone:     first("phone", "phone_number"),
	}
	return id, id.validate()
}

// rawScalar — id зала приходит и числом, и строкой.
func rawScalar(m json.RawMessage) string {
	m = bytes.TrimSpace(m)
	if len(m) == 0 || string(m) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(m, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return string(m)
}

func (id Identity) validate() error {
	if id.GymCode == "" {
		return fmt.Errorf("%w: missing gym identifier", ErrInvalidPayload)
	}
	if id.UserToken == "" {
		return fmt.Errorf("%w: missing user token", ErrInvalidPayload)
	}
	return nil
}
