package service

// Типы сообщений клиент -> сервер.
const (
	ClientMsgJoin     = "join"
	ClientMsgPosition = "position"
	ClientMsgLeave    = "leave"
)

// Типы сообщений сервер -> клиент.
const (
	ServerMsgWelcome     = "welcome"
	ServerMsgBlockPlace  = "block_place"
	ServerMsgBlockRemove = "block_remove"
	ServerMsgTeleport    = "teleport"
	ServerMsgChat        = "message"
	ServerMsgScore       = "score"
	ServerMsgShutdown    = "shutdown"
)

// ClientMessage — JSON-сообщение от клиента.
type ClientMessage struct {
	Type string `json:"type"`
	// Name используется только в join.
	Name string `json:"name,omitempty"`
	// X/Y/Z используются только в position.
	X float64 `json:"x,omitempty"`
	Y float64 `json:"y,omitempty"`
	Z float64 `json:"z,omitempty"`
}

// ServerMessage — JSON-сообщение клиенту.
type ServerMessage struct {
	Type string `json:"type"`

	// PlayerID заполняется в welcome: выданный сервером идентификатор.
	PlayerID string `json:"player_id,omitempty"`

	// Координаты блока для block_place/block_remove.
	BlockX    int32 `json:"block_x,omitempty"`
	BlockY    int32 `json:"block_y,omitempty"`
	BlockZ    int32 `json:"block_z,omitempty"`
	BlockType int32 `json:"block_type,omitempty"`

	// Позиция для teleport.
	X float64 `json:"x,omitempty"`
	Y float64 `json:"y,omitempty"`
	Z float64 `json:"z,omitempty"`

	// Text заполняется в message.
	Text string `json:"text,omitempty"`

	// Поля счёта для score.
	Score       int64 `json:"score,omitempty"`
	BestSegment int64 `json:"best_segment,omitempty"`
	Combo       int32 `json:"combo,omitempty"`
}
