package store

// AudioRepository remembers which recording a provider call should play.
type AudioRepository interface {
	Save(callID string, audioURL string) error
	Find(callID string) (string, error)
}
