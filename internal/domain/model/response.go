package model

type ResponseType int

const (
	ResponsePong                   ResponseType = 1
	ResponseChannelMessage         ResponseType = 4
	ResponseDeferredChannelMessage ResponseType = 5
)

// MessageFlagEphemeral makes a reply visible only to the invoking user.
const MessageFlagEphemeral = 1 << 6

// InteractionResponse is the synchronous JSON body returned to Discord.
type InteractionResponse struct {
	Type ResponseType  `json:"type"`
	Data *ResponseData `json:"data,omitempty"`
}

type ResponseData struct {
	Content string `json:"content,omitempty"`
	Flags   int    `json:"flags,omitempty"`
}

func PongResponse() InteractionResponse {
	return InteractionResponse{Type: ResponsePong}
}

func MessageResponse(content string) InteractionResponse {
	return InteractionResponse{
		Type: ResponseChannelMessage,
		Data: &ResponseData{Content: content},
	}
}

func EphemeralResponse(content string) InteractionResponse {
	return InteractionResponse{
		Type: ResponseChannelMessage,
		Data: &ResponseData{Content: content, Flags: MessageFlagEphemeral},
	}
}

func DeferredResponse(ephemeral bool) InteractionResponse {
	resp := InteractionResponse{Type: ResponseDeferredChannelMessage}
	if ephemeral {
		resp.Data = &ResponseData{Flags: MessageFlagEphemeral}
	}
	return resp
}

func (r InteractionResponse) IsEphemeral() bool {
	return r.Data != nil && r.Data.Flags&MessageFlagEphemeral != 0
}

// Content returns the message text, or "" for responses without data.
func (r InteractionResponse) Content() string {
	if r.Data == nil {
		return ""
	}
	return r.Data.Content
}
