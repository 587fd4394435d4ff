package domain

import (
	"math"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func requireTime(entity, field string, t time.Time) error {
	if t.IsZero() {
		return invalid(entity, field, "must be set")
	}
	return nil
}

func requireRef(entity, field string, id ID) error {
	if id.IsZero() {
		return invalid(entity, field, "must reference a document")
	}
	return nil
}

// normalizeDocument passes a free-form document through BSON so its values
// carry the types a later read returns: ints as int32 or int64, slices as
// primitive.A and nested documents as map[string]any.
func normalizeDocument(entity, field string, doc map[string]any) (map[string]any, error) {
	if doc == nil {
		return nil, nil
	}
	data, err := bson.Marshal(doc)
	if err != nil {
		return nil, invalid(entity, field, err.Error())
	}
	var out map[string]any
	if err := bson.Unmarshal(data, &out); err != nil {
		return nil, invalid(entity, field, err.Error())
	}
	return out, nil
}
