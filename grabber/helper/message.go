package helper

import (
	"fmt"

	"github.com/spance/openterface-grab/grabber/definitions"
	"github.com/spance/openterface-grab/utils"
)

// RedactContent returns a copy of resp whose data.content is replaced by
// a short placeholder, for printing.
func RedactContent(resp *definitions.ServerResponse) *definitions.ServerResponse {
	if resp == nil {
		return nil
	}
	out := *resp
	if resp.Data != nil {
		data := *resp.Data
		if data.Content != "" {
			data.Content = fmt.Sprintf("<base64 %d chars>", len(resp.Data.Content))
		}
		out.Data = &data
	}
	return &out
}

// DescribeMetadata renders the response without its payload.
func DescribeMetadata(resp *definitions.ServerResponse) string {
	return utils.JsonIndent(RedactContent(resp))
}
