package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"chronos-go/internal/config"
	schedulingdomain "chronos-go/internal/domain/scheduling"
	"chronos-go/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

type MockNATSConn struct {
	mock.Mock
}

func (m *MockNATSConn) IsConnected() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockNATSConn) Publish(subj string, data []byte) error {
	args := m.Called(subj, data)
	return args.Error(0)
}

func sampleEvent() schedulingdomain.RecalculatedEvent {
	return schedulingdomain.RecalculatedEvent{
		MeetingID:   "m-1",
		CommonDates: []string{"2025-06-02"},
		Statuses: []schedulingdomain.StatusEntry{
			{ParticipantID: "p-1", Status: "VOTED"},
		},
		Changed:        1,
		RecalculatedAt: time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestPublishRecalculatedJSON(t *testing.T) {
	conn := new(MockNATSConn)
	conn.On("IsConnected").Return(true)
	conn.On("Publish", "chronos.meeting.recalculated", mock.Anything).Return(nil)

	publisher, err := NewPublisher(conn, config.NATSConfig{SubjectPrefix: "chronos", Encoding: "json"}, logger.Nop())
	require.NoError(t, err)
	require.NoError(t, publisher.PublishRecalculated(context.Background(), sampleEvent()))

	conn.AssertExpectations(t)
	data := conn.Calls[1].Arguments.Get(1).([]byte)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "m-1", decoded["meetingId"])
	assert.Equal(t, []interface{}{"2025-06-02"}, decoded["commonDates"])
}

func TestPublishRecalculatedMsgpack(t *testing.T) {
	conn := new(MockNATSConn)
	conn.On("IsConnected").Return(true)
	conn.On("Publish", "chronos.meeting.recalculated", mock.Anything).Return(nil)

	publisher, err := NewPublisher(conn, config.NATSConfig{SubjectPrefix: "chronos.", Encoding: "msgpack"}, logger.Nop())
	require.NoError(t, err)
	require.NoError(t, publisher.PublishRecalculated(context.Background(), sampleEvent()))

	data := conn.Calls[1].Arguments.Get(1).([]byte)
	var decoded schedulingdomain.RecalculatedEvent
	require.NoError(t, msgpack.Unmarshal(data, &decoded))
	assert.Equal(t, "m-1", decoded.MeetingID)
	assert.Equal(t, "VOTED", decoded.Statuses[0].Status)
}

func TestPublishErrors(t *testing.T) {
	tests := []struct {
		name       string
		connected  bool
		publishErr error
		expected   error
	}{
		{name: "disconnected", connected: false, expected: ErrNotConnected},
		{name: "publish failure", connected: true, publishErr: errors.New("publish failed")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := new(MockNATSConn)
			conn.On("IsConnected").Return(tt.connected)
			if tt.connected {
				conn.On("Publish", "meeting.recalculated", mock.Anything).Return(tt.publishErr)
			}

			publisher, err := NewPublisher(conn, config.NATSConfig{}, logger.Nop())
			require.NoError(t, err)

			err = publisher.PublishRecalculated(context.Background(), sampleEvent())
			assert.Error(t, err)
			if tt.expected != nil {
				assert.ErrorIs(t, err, tt.expected)
			}
			conn.AssertExpectations(t)
		})
	}
}

func TestNewPublisherRejectsUnknownEncoding(t *testing.T) {
	_, err := NewPublisher(new(MockNATSConn), config.NATSConfig{Encoding: "xml"}, logger.Nop())
	assert.Error(t, err)
}
