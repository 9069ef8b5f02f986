package tasks

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	TypeRefreshChannel = "channel:refresh"
	TypeRefreshAll     = "channels:refresh_all"
	TypeProcessAudio   = "episode:audio"
)

type RefreshChannelPayload struct {
	ChannelID string
}

func NewRefreshChannelTask(channelID string) (*asynq.Task, error) {
	payload, err := json.Marshal(RefreshChannelPayload{ChannelID: channelID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeRefreshChannel, payload), nil
}

// NewRefreshAllTask is the hourly sweep over every stored channel.
func NewRefreshAllTask() (*asynq.Task, error) {
	return asynq.NewTask(TypeRefreshAll, nil), nil
}

type ProcessAudioPayload struct {
	ChannelID string
	EpisodeID string
	NativeURL string
}

func NewProcessAudioTask(channelID, episodeID, nativeURL string) (*asynq.Task, error) {
	payload, err := json.Marshal(ProcessAudioPayload{
		ChannelID: channelID,
		EpisodeID: episodeID,
		NativeURL: nativeURL,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeProcessAudio, payload), nil
}
