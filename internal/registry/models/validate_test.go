package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "github.com/gboigwe/StratoLedger/pkg/domain-errors"
)

// TestValidAltitudeRange validates the range invariant: min >= 0 and
// max >= min. Pure function enforcing a domain invariant, so unit tests
// cover the exact boundaries.
func TestValidAltitudeRange(t *testing.T) {
	t.Run("accepts zero band", func(t *testing.T) {
		assert.True(t, ValidAltitudeRange(0, 0))
	})

	t.Run("accepts min equal max", func(t *testing.T) {
		assert.True(t, ValidAltitudeRange(500, 500))
	})

	t.Run("rejects inverted band", func(t *testing.T) {
		assert.False(t, ValidAltitudeRange(100, 50))
	})

	t.Run("rejects negative min", func(t *testing.T) {
		assert.False(t, ValidAltitudeRange(-1, 50))
	})
}

func TestValidCoordinates(t *testing.T) {
	t.Run("accepts origin", func(t *testing.T) {
		assert.True(t, ValidCoordinates(0, 0))
	})

	t.Run("accepts poles and antimeridian exactly", func(t *testing.T) {
		assert.True(t, ValidCoordinates(90_000_000, 180_000_000))
		assert.True(t, ValidCoordinates(-90_000_000, -180_000_000))
	})

	t.Run("rejects one past the pole", func(t *testing.T) {
		assert.False(t, ValidCoordinates(90_000_001, 0))
		assert.False(t, ValidCoordinates(-90_000_001, 0))
	})

	t.Run("rejects one past the antimeridian", func(t *testing.T) {
		assert.False(t, ValidCoordinates(0, 180_000_001))
		assert.False(t, ValidCoordinates(0, -180_000_001))
	})
}

func TestValidContentHash(t *testing.T) {
	valid := strings.Repeat("ab12", 16)

	t.Run("accepts 64 hex chars", func(t *testing.T) {
		require.Len(t, valid, ContentHashLen)
		assert.True(t, ValidContentHash(valid))
	})

	t.Run("rejects wrong length", func(t *testing.T) {
		assert.False(t, ValidContentHash(valid[:63]))
		assert.False(t, ValidContentHash(valid+"a"))
		assert.False(t, ValidContentHash(""))
	})

	t.Run("rejects uppercase and non-hex", func(t *testing.T) {
		assert.False(t, ValidContentHash(strings.Repeat("AB12", 16)))
		assert.False(t, ValidContentHash(strings.Repeat("zz12", 16)))
	})
}

func TestMetadataValidate(t *testing.T) {
	base := Metadata{Name: "sonde-launch-42", Description: "radiosonde profile", DataType: "temperature"}

	t.Run("accepts bounded fields", func(t *testing.T) {
		require.NoError(t, base.Validate())
	})

	t.Run("rejects empty name", func(t *testing.T) {
		m := base
		m.Name = ""
		err := m.Validate()
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidParams))
	})

	t.Run("rejects oversized fields", func(t *testing.T) {
		m := base
		m.Name = strings.Repeat("n", MaxNameLen+1)
		assert.True(t, dErrors.HasCode(m.Validate(), dErrors.CodeInvalidParams))

		m = base
		m.Description = strings.Repeat("d", MaxDescriptionLen+1)
		assert.True(t, dErrors.HasCode(m.Validate(), dErrors.CodeInvalidParams))

		m = base
		m.DataType = strings.Repeat("t", MaxDataTypeLen+1)
		assert.True(t, dErrors.HasCode(m.Validate(), dErrors.CodeInvalidParams))
	})

	t.Run("accepts fields at the limit", func(t *testing.T) {
		m := Metadata{
			Name:        strings.Repeat("n", MaxNameLen),
			Description: strings.Repeat("d", MaxDescriptionLen),
			DataType:    strings.Repeat("t", MaxDataTypeLen),
		}
		assert.NoError(t, m.Validate())
	})
}

func TestLocationValidate(t *testing.T) {
	t.Run("accepts a stratospheric band", func(t *testing.T) {
		loc := Location{AltitudeMin: 18_000, AltitudeMax: 32_000, Latitude: 51_477_500, Longitude: -70_000}
		assert.NoError(t, loc.Validate())
	})

	t.Run("rejects inverted altitude", func(t *testing.T) {
		loc := Location{AltitudeMin: 100, AltitudeMax: 50}
		assert.True(t, dErrors.HasCode(loc.Validate(), dErrors.CodeInvalidParams))
	})

	t.Run("rejects out of bounds latitude", func(t *testing.T) {
		loc := Location{Latitude: 90_000_001}
		assert.True(t, dErrors.HasCode(loc.Validate(), dErrors.CodeInvalidParams))
	})
}
