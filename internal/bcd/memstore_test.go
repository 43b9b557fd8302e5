package bcd

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemStoreCloneCarriesInheritedValues(t *testing.T) {
	t.Parallel()

	s := NewMemStore()
	id, err := s.CloneDefault(context.Background(), "BootGlyph")
	require.NoError(t, err)

	values := s.Values(id)
	for _, name := range StrippedValues {
		require.Contains(t, values, name)
	}

	for _, name := range StrippedValues {
		require.NoError(t, s.DeleteValue(context.Background(), id, name))
	}
	require.Empty(t, s.Values(id))
}

func TestMemStoreDisplayOrderAndDelete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewMemStore()

	first, err := s.CreateFirmwareEntry(ctx, "Other")
	require.NoError(t, err)
	require.NoError(t, s.AddFirstDisplayOrder(ctx, first))

	second, err := s.CloneDefault(ctx, "BootGlyph")
	require.NoError(t, err)
	require.NoError(t, s.AddFirstDisplayOrder(ctx, second))

	require.Equal(t, []string{second, first}, s.DisplayOrder())

	require.NoError(t, s.Delete(ctx, second))
	require.Equal(t, []string{first}, s.DisplayOrder())

	entries, err := s.Enumerate(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, first, entries[0].ID)
}

func TestMemStoreEnumerateBodiesContainDescription(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewMemStore()
	id, err := s.CreateFirmwareEntry(ctx, "BootGlyph")
	require.NoError(t, err)
	require.NoError(t, s.SetPath(ctx, id, `\EFI\bootglyph\loader.efi`))

	entries, err := s.Enumerate(ctx)
	require.NoError(t, err)
	require.Len(t, EntriesMatching(entries, "bootglyph"), 1)
}

func TestMemStoreUnknownEntryErrors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewMemStore()

	require.Error(t, s.SetDevice(ctx, "{missing}", "partition=S:"))
	require.Error(t, s.Delete(ctx, "{missing}"))
}
