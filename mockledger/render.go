package mockledger

import (
	"github.com/ledgerkit/api-test-harness/framework/helpers"

	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

// renderJSONRPC writes {"result": {...}} with the status inside the result object, which is how
// the server answers over HTTP.
func (s *LedgerService) renderJSONRPC(result ldvalue.Value, errToken string, request ldvalue.Value) []byte {
	w := jwriter.NewWriter()
	obj := w.Object()
	resultObj := obj.Name("result").Object()
	if errToken == "" {
		writeProperties(&resultObj, result)
		resultObj.Name("status").String("success")
	} else {
		s.writeErrorFields(&resultObj, errToken, request)
	}
	resultObj.End()
	obj.End()
	return w.Bytes()
}

// renderWebSocket writes a response message. Over a websocket the status and any error fields
// are siblings of "result" rather than inside it.
func (s *LedgerService) renderWebSocket(id ldvalue.Value, result ldvalue.Value, errToken string,
	request ldvalue.Value) []byte {
	w := jwriter.NewWriter()
	obj := w.Object()
	id.WriteToJSONWriter(obj.Name("id"))
	if errToken == "" {
		resultObj := obj.Name("result").Object()
		writeProperties(&resultObj, result)
		resultObj.End()
		obj.Name("status").String("success")
	} else {
		s.writeErrorFields(&obj, errToken, request)
	}
	obj.Name("type").String("response")
	obj.End()
	return w.Bytes()
}

func (s *LedgerService) writeErrorFields(obj *jwriter.ObjectState, errToken string, request ldvalue.Value) {
	details := s.errorDetails.GetByKey(errToken)
	obj.Name("error").String(errToken)
	if code := details.GetByKey("error_code"); code.IsNumber() {
		obj.Name("error_code").Int(code.IntValue())
	}
	if message := details.GetByKey("error_message"); message.IsString() {
		obj.Name("error_message").String(message.StringValue())
	}
	request.WriteToJSONWriter(obj.Name("request"))
	obj.Name("status").String("error")
}

// writeProperties copies an object's properties in key order, so responses are stable.
func writeProperties(obj *jwriter.ObjectState, value ldvalue.Value) {
	props := value.AsValueMap().AsMap()
	for _, key := range helpers.SortedKeys(props) {
		props[key].WriteToJSONWriter(obj.Name(key))
	}
}
