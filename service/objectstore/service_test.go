package objectstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestService(t *testing.T) {
	ctx := context.Background()
	store := New("mem://localhost/objectstore-test")

	err := store.Put(ctx, "documents/abc/original.pdf", []byte("payload"))
	assert.NoError(t, err)

	data, err := store.Get(ctx, "documents/abc/original.pdf")
	assert.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)

	err = store.Delete(ctx, "documents/abc/original.pdf")
	assert.NoError(t, err)

	_, err = store.Get(ctx, "documents/abc/original.pdf")
	assert.Error(t, err)
	var storeErr *Error
	assert.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "get", storeErr.Op)

	// deleting an absent key is a no-op
	err = store.Delete(ctx, "documents/abc/original.pdf")
	assert.NoError(t, err)
}
