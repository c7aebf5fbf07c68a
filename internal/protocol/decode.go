package protocol

import "io"

// DecodeRequest reads exactly one Request frame from r.
func DecodeRequest(r io.Reader) (Request, error) {
	fr := &fieldReader{r: r, family: FamilyRequest}
	tag, err := fr.readTag()
	if err != nil {
		return nil, err
	}
	switch tag {
	case TagJoin:
		room, err := fr.readU128("room_id", requestMarkerLen)
		if err != nil {
			return nil, err
		}
		return Join{RoomID: room}, nil
	case TagMessage:
		room, err := fr.readU128("room_id", requestMarkerLen)
		if err != nil {
			return nil, err
		}
		text, err := fr.readText("message")
		if err != nil {
			return nil, err
		}
		return Message{RoomID: room, Text: text}, nil
	default:
		return nil, fr.invalidTag()
	}
}

// DecodeResponse reads exactly one Response frame from r.
func DecodeResponse(r io.Reader) (Response, error) {
	fr := &fieldReader{r: r, family: FamilyResponse}
	tag, err := fr.readTag()
	if err != nil {
		return nil, err
	}
	switch tag {
	case TagError:
		return Error{}, nil
	case TagJoinReject:
		return JoinReject{}, nil
	case TagJoined:
		room, err := fr.readU128("room_id", responseMarkerLen)
		if err != nil {
			return nil, err
		}
		return Joined{RoomID: room}, nil
	case TagMsgSent:
		id, err := fr.readU128("message_id", responseMarkerLen)
		if err != nil {
			return nil, err
		}
		return MsgSent{MessageID: id}, nil
	default:
		return nil, fr.invalidTag()
	}
}
