package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docshelf/internal/adapters/driving/tui"
)

func TestTUICmd_Registered(t *testing.T) {
	cmd, _, err := rootCmd.Find([]string{"tui"})

	require.NoError(t, err)
	assert.Equal(t, "tui", cmd.Name())
	assert.Contains(t, cmd.Long, "Retry a failed ingestion")
}

func TestBuildTUIPorts(t *testing.T) {
	mocks, cleanup := installTestServices()
	defer cleanup()

	ports := buildTUIPorts()

	require.NoError(t, ports.Validate())
	assert.Equal(t, mocks.search, ports.Search)
	assert.Equal(t, mocks.document, ports.Document)
	assert.Equal(t, mocks.ingest, ports.Ingest)
	assert.Equal(t, currentOwner(), ports.Owner)
}

func TestBuildTUIPorts_WithoutIngest(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	ingestService = nil

	ports := buildTUIPorts()

	assert.Nil(t, ports.Ingest)
	assert.NoError(t, ports.Validate())
}

func TestRunTUI_MissingServices(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	searchService = nil

	_, err := executeCommand("tui")

	require.Error(t, err)
	assert.ErrorIs(t, err, tui.ErrMissingSearchService)
}
