package postgres

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/schema"
)

// Columns fed by unbounded input must not truncate or round on insert,
// otherwise Create and Get disagree with the SQLite backend.
func TestUnboundedColumns(t *testing.T) {
	tests := []struct {
		model  any
		column string
		want   string
	}{
		{&payEntryRow{}, "amount", "numeric"},
		{&payEntryRow{}, "account_number", "text"},
		{&payEntryRow{}, "employee_id", "text"},
		{&approverRow{}, "approver_id", "text"},
		{&disbursementRow{}, "updated_by", "text"},
		{&bankAccountRow{}, "account_id", "text"},
		{&bankAccountRow{}, "pay_percentage", "numeric"},
	}

	cache := &sync.Map{}
	for _, tt := range tests {
		s, err := schema.Parse(tt.model, cache, schema.NamingStrategy{})
		require.NoError(t, err)

		field := s.LookUpField(tt.column)
		require.NotNil(t, field, "%s.%s", s.Table, tt.column)
		assert.Equal(t, tt.want, field.TagSettings["TYPE"], "%s.%s", s.Table, tt.column)
	}
}
