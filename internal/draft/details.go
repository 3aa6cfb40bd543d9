package draft

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"time"

	"marketplace-service/internal/apperrors"
)

type DescriptionInput struct {
	Text         string   `json:"product_description" validate:"notblank,max=1000"`
	BulletPoints []string `json:"bullet_points" validate:"required,min=1,max=5,dive,notblank,max=500"`
}

// SetDescription merges the description into the draft.
func SetDescription(d Draft, in DescriptionInput) (Draft, error) {
	if _, err := requireIdentity(d); err != nil {
		return Draft{}, err
	}
	if err := validateStruct(in); err != nil {
		return Draft{}, err
	}
	out := d.Clone()
	bullets := make([]string, len(in.BulletPoints))
	for i, b := range in.BulletPoints {
		bullets[i] = strings.TrimSpace(b)
	}
	out.Description = &Description{Text: strings.TrimSpace(in.Text), BulletPoints: bullets}
	return out, nil
}

// SetDetails validates a category-specific detail payload and merges it into the draft's
// details. now anchors expiry-date checks.
func SetDetails(d Draft, raw json.RawMessage, now time.Time) (Draft, error) {
	id, err := requireIdentity(d)
	if err != nil {
		return Draft{}, err
	}
	attrs, err := schemaFor(id.Family).details(d, raw, now)
	if err != nil {
		return Draft{}, err
	}
	out := d.Clone()
	if out.Details == nil {
		out.Details = Attributes{}
	}
	for k, v := range attrs {
		out.Details[k] = v
	}
	return out, nil
}

// decodeStrict decodes raw into v, rejecting fields v does not declare.
func decodeStrict(raw json.RawMessage, v any) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		return apperrors.Validation("request body is required")
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return apperrors.Validation("request body is required")
		}
		if field, ok := strings.CutPrefix(err.Error(), "json: unknown field "); ok {
			return apperrors.InvalidField(strings.Trim(field, `"`), "is not a detail of this category")
		}
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return apperrors.InvalidField(typeErr.Field, "must be of type %s", typeErr.Type)
		}
		return apperrors.Validation("malformed details: %v", err)
	}
	return nil
}

// dropCovered rejects detail fields that are already variation parameters; their value
// differs per variation and lives in each variation's theme.
func dropCovered(c *apperrors.Collector, d Draft, supplied map[string]bool) {
	for _, name := range slices.Sorted(maps.Keys(supplied)) {
		if supplied[name] && d.HasParam(name) {
			c.Add(name, "is a variation parameter and is set per variation")
		}
	}
}

func putString(attrs Attributes, key string, v *string) {
	if v != nil {
		attrs[key] = strings.TrimSpace(*v)
	}
}

func requireString(c *apperrors.Collector, field string, v *string) {
	if v == nil || strings.TrimSpace(*v) == "" {
		c.Add(field, "is required")
	}
}

var expiryLayouts = []string{"2006-1-2", "2/1/2006", "1/2/2006"}

// parseExpiry accepts ISO, D/M/Y and M/D/Y dates. The first layout that parses decides; the
// date must be after today and is returned in ISO form.
func parseExpiry(value string, now time.Time) (string, error) {
	value = strings.TrimSpace(value)
	for _, layout := range expiryLayouts {
		t, err := time.Parse(layout, value)
		if err != nil {
			continue
		}
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		if !t.After(today) {
			return "", errors.New("expiry date must be in the future")
		}
		return t.Format("2006-01-02"), nil
	}
	return "", fmt.Errorf("invalid date %q, use YYYY-MM-DD, DD/MM/YYYY or MM/DD/YYYY", value)
}
