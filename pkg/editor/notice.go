package editor

// NoticeLevel grades a transient author-facing message.
type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// maxNotices bounds the queue when a client never drains it.
const maxNotices = 20

// Notice is a transient message, e.g. a rejected connection.
type Notice struct {
	Level NoticeLevel `json:"level"`
	Text  string      `json:"text"`
}

func (s *Session) notify(level NoticeLevel, text string) {
	if text == "" {
		return
	}
	s.notices = append(s.notices, Notice{Level: level, Text: text})
	if len(s.notices) > maxNotices {
		s.notices = s.notices[len(s.notices)-maxNotices:]
	}
}

// Notices returns the pending notices without clearing them.
func (s *Session) Notices() []Notice {
	return append([]Notice(nil), s.notices...)
}

// DrainNotices returns and clears the pending notices.
func (s *Session) DrainNotices() []Notice {
	out := s.notices
	s.notices = nil
	return out
}
