package connectors

const (
	TopicConnStatus  = "conn.status"
	TopicCommand     = "command"
	TopicRawFrameIn  = "raw.frame.in"
	TopicRawFrameOut = "raw.frame.out"
)
