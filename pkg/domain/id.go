package domain

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/x/bsonx/bsoncore"
)

// ID identifies a stored document. It is stored as a native BSON ObjectID and
// rendered as a 24 character hex string at the JSON boundary.
type ID primitive.ObjectID

// NilID is the zero identifier. It never identifies a stored document.
var NilID ID

// NewID returns a new unique identifier.
func NewID() ID {
	return ID(primitive.NewObjectID())
}

// ParseID converts an external identifier string into an ID.
// Malformed input returns an error matching ErrInvalidIdentifier.
func ParseID(s string) (ID, error) {
	oid, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return NilID, fmt.Errorf("%w: %q", ErrInvalidIdentifier, s)
	}
	return ID(oid), nil
}

// MustParseID is like ParseID but panics on malformed input. Intended for
// constants and tests.
func MustParseID(s string) ID {
	id, err := ParseID(s)
	if err != nil {
		panic(err)
	}
	return id
}

// IDFromObjectID wraps a driver ObjectID.
func IDFromObjectID(oid primitive.ObjectID) ID {
	return ID(oid)
}

// ObjectID returns the driver representation, for use in raw driver calls.
func (id ID) ObjectID() primitive.ObjectID {
	return primitive.ObjectID(id)
}

// Hex returns the canonical string form.
func (id ID) Hex() string {
	return primitive.ObjectID(id).Hex()
}

func (id ID) String() string {
	return id.Hex()
}

// IsZero reports whether id is NilID. It also drives bson omitempty.
func (id ID) IsZero() bool {
	return id == NilID
}

// Timestamp returns the creation second embedded in the identifier.
func (id ID) Timestamp() time.Time {
	return primitive.ObjectID(id).Timestamp()
}

// MarshalText encodes the id as hex. JSON uses it too.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.Hex()), nil
}

// UnmarshalText parses hex text. An empty value decodes to NilID.
func (id *ID) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*id = NilID
		return nil
	}
	parsed, err := ParseID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// MarshalBSONValue stores the id as an ObjectID.
func (id ID) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.TypeObjectID, bsoncore.AppendObjectID(nil, primitive.ObjectID(id)), nil
}

// UnmarshalBSONValue accepts an ObjectID, or a hex string for documents
// written by clients that stored ids as strings.
func (id *ID) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	switch t {
	case bson.TypeObjectID:
		oid, _, ok := bsoncore.ReadObjectID(data)
		if !ok {
			return fmt.Errorf("domain: malformed ObjectID value")
		}
		*id = ID(oid)
	case bson.TypeString:
		s, _, ok := bsoncore.ReadString(data)
		if !ok {
			return fmt.Errorf("domain: malformed string id value")
		}
		parsed, err := ParseID(s)
		if err != nil {
			return err
		}
		*id = parsed
	case bson.TypeNull, bson.TypeUndefined:
		*id = NilID
	default:
		return fmt.Errorf("domain: cannot decode BSON %s into ID", t)
	}
	return nil
}
