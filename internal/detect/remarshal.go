package detect

import (
	"encoding/json"
	"fmt"
)

// remarshal converts an already-decoded JSON value into a typed struct.
func remarshal(src any, dst any) error {
	b, err := json.Marshal(src)
	if err != nil {
		return fmt.Errorf("re-serialize response: %w", err)
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("response shape: %v", err)
	}
	return nil
}
