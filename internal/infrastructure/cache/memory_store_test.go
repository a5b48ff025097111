package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore() (*MemoryStore, *time.Time) {
	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	s := NewMemoryStore()
	s.now = func() time.Time { return now }
	return s, &now
}

func TestMemoryStore_AgregaYLista(t *testing.T) {
	s, _ := newTestStore()
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, "huella-1", "a", time.Hour))
	require.NoError(t, s.Add(ctx, "huella-1", "b", time.Hour))

	members, err := s.Members(ctx, "huella-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, members)
}

func TestMemoryStore_BaldeVencidoVuelveVacio(t *testing.T) {
	s, now := newTestStore()
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, "huella-1", "a", time.Hour))
	*now = now.Add(61 * time.Minute)

	members, err := s.Members(ctx, "huella-1")
	require.NoError(t, err)
	assert.Empty(t, members)
}

func TestMemoryStore_AddCorreLaExpiracionDelBalde(t *testing.T) {
	s, now := newTestStore()
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, "huella-1", "a", time.Hour))
	*now = now.Add(50 * time.Minute)
	require.NoError(t, s.Add(ctx, "huella-1", "b", time.Hour))
	*now = now.Add(50 * time.Minute)

	// La segunda inserción renovó la ventana del balde completo.
	members, err := s.Members(ctx, "huella-1")
	require.NoError(t, err)
	assert.Len(t, members, 2)
}

func TestMemoryStore_AddSobreBaldeVencidoEmpiezaDeNuevo(t *testing.T) {
	s, now := newTestStore()
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, "huella-1", "viejo", time.Hour))
	*now = now.Add(2 * time.Hour)
	require.NoError(t, s.Add(ctx, "huella-1", "nuevo", time.Hour))

	members, err := s.Members(ctx, "huella-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"nuevo"}, members, "los miembros vencidos no reviven")
}

func TestMemoryStore_PurgeRetiraSoloLosVencidos(t *testing.T) {
	s, now := newTestStore()
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, "vieja", "a", time.Minute))
	require.NoError(t, s.Add(ctx, "vigente", "b", time.Hour))
	*now = now.Add(30 * time.Minute)

	assert.Equal(t, 1, s.Purge())

	members, err := s.Members(ctx, "vigente")
	require.NoError(t, err)
	assert.Len(t, members, 1)
}
