package helper

import (
	"github.com/spance/openterface-grab/grabber/definitions"
	"github.com/spance/openterface-grab/utils"
)

// ParseResponse decodes one framed document.
func ParseResponse(raw []byte) (*definitions.ServerResponse, error) {
	resp, err := utils.JsonDecode[definitions.ServerResponse](raw)
	if err != nil {
		return nil, &MalformedJSONError{Size: len(raw), Err: err}
	}
	return resp, nil
}
