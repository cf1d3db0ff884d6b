package mongox

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestDuplicateKeyIndex(t *testing.T) {
	dup := mongo.WriteException{WriteErrors: mongo.WriteErrors{{
		Code:    11000,
		Message: `E11000 duplicate key error collection: conference_db.users index: users_email_unique dup key: { email: "a@b.c" }`,
	}}}

	assert.True(t, IsDuplicateKey(dup))
	assert.Equal(t, "users_email_unique", DuplicateKeyIndex(dup))
	assert.Equal(t, "users_email_unique", DuplicateKeyIndex(fmt.Errorf("insert: %w", dup)))

	other := mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 121, Message: "Document failed validation"}}}
	assert.False(t, IsDuplicateKey(other))
	assert.Empty(t, DuplicateKeyIndex(other))
	assert.Empty(t, DuplicateKeyIndex(errors.New("boom")))
}

func TestIndexFromMessage(t *testing.T) {
	assert.Equal(t, "conferences_name_unique", indexFromMessage("E11000 duplicate key error collection: x.conferences index: conferences_name_unique dup key: { name: \"DevCon\" }"))
	assert.Empty(t, indexFromMessage("no index here"))
}
