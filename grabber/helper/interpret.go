package helper

import (
	"github.com/cloudwego/base64x"
	"github.com/spance/openterface-grab/constants"
	"github.com/spance/openterface-grab/grabber/definitions"
)

// Interpret classifies a parsed response for the command that produced
// it. It performs no I/O. A non-success status always yields a
// *ServerError and nothing is decoded.
func Interpret(resp *definitions.ServerResponse, command string) (*definitions.Result, error) {
	if resp.Status != definitions.StatusSuccess {
		return nil, &ServerError{Type: resp.Type, Status: resp.Status, Message: resp.Message}
	}

	if resp.Type == definitions.TypeStatus || command == constants.CmdCheckStatus {
		return &definitions.Result{
			Kind:     definitions.KindStatus,
			Command:  command,
			Status:   statusInfo(resp),
			Response: resp,
		}, nil
	}

	payload, err := ExtractPayload(resp)
	if err != nil {
		return nil, err
	}
	return &definitions.Result{
		Kind:     definitions.KindPayload,
		Command:  command,
		Payload:  payload,
		Response: resp,
	}, nil
}

// ExtractPayload decodes data.content and collects the image metadata.
func ExtractPayload(resp *definitions.ServerResponse) (*definitions.ImagePayload, error) {
	data := resp.Data
	if data.IsEmpty() {
		return nil, ErrMissingData
	}
	if data.Content == "" {
		return nil, ErrMissingContent
	}

	raw, err := base64x.StdEncoding.DecodeString(data.Content)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}

	payload := &definitions.ImagePayload{
		Bytes:    raw,
		Format:   ParseFormat(data.Format),
		Encoding: data.Encoding,
		Size:     data.Size,
	}
	if data.Width != nil && data.Height != nil {
		payload.Width = data.Width
		payload.Height = data.Height
	}
	return payload, nil
}

func statusInfo(resp *definitions.ServerResponse) *definitions.StatusInfo {
	info := &definitions.StatusInfo{State: "unknown", Timestamp: resp.Timestamp}
	if resp.Data != nil {
		if resp.Data.State != "" {
			info.State = resp.Data.State
		}
		info.Message = resp.Data.Message
	}
	return info
}
