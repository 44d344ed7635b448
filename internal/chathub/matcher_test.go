package chathub_test

import (
	"testing"

	"chatterbox/backend/internal/chathub"
	"chatterbox/backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestMatchPartner(t *testing.T) {
	self := models.User{ID: "1", Username: "alice"}
	roster := []models.User{
		self,
		{ID: "2", Username: "Bob"},
		{ID: "3", Username: "carol"},
	}

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{name: "exact", input: "carol", want: "carol"},
		{name: "case and spaces", input: "  bob ", want: "Bob"},
		{name: "blank", input: "  ", wantErr: chathub.ErrNoTarget},
		{name: "self", input: "ALICE", wantErr: chathub.ErrSelfTarget},
		{name: "offline", input: "dave", wantErr: chathub.ErrPartnerOffline},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := chathub.MatchPartner(roster, self, tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOnlinePartners(t *testing.T) {
	self := models.User{ID: "1", Username: "alice"}
	bob := models.User{ID: "2", Username: "bob"}

	assert.Equal(t, []models.User{bob}, chathub.OnlinePartners([]models.User{self, bob}, self))
	assert.Empty(t, chathub.OnlinePartners([]models.User{self}, self))
}
