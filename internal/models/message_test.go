package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusRankOrder(t *testing.T) {
	assert.Less(t, StatusSent.Rank(), StatusDelivered.Rank())
	assert.Less(t, StatusDelivered.Rank(), StatusRead.Rank())
	assert.Equal(t, -1, MessageStatus("bogus").Rank())
}

func TestUpgradeStatusNeverRegresses(t *testing.T) {
	assert.Equal(t, StatusDelivered, UpgradeStatus(StatusSent, StatusDelivered))
	assert.Equal(t, StatusRead, UpgradeStatus(StatusDelivered, StatusRead))
	assert.Equal(t, StatusRead, UpgradeStatus(StatusSent, StatusRead))

	// Late acknowledgements arriving out of order must not move the status back.
	assert.Equal(t, StatusRead, UpgradeStatus(StatusRead, StatusDelivered))
	assert.Equal(t, StatusRead, UpgradeStatus(StatusRead, StatusSent))
	assert.Equal(t, StatusDelivered, UpgradeStatus(StatusDelivered, StatusSent))
}

func TestUpgradeStatusIdempotent(t *testing.T) {
	for _, s := range []MessageStatus{StatusSent, StatusDelivered, StatusRead} {
		assert.Equal(t, s, UpgradeStatus(s, s))
	}
}

func TestUpgradeStatusUnknownCurrent(t *testing.T) {
	assert.Equal(t, StatusSent, UpgradeStatus(MessageStatus(""), StatusSent))
}
