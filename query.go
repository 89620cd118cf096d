package gaze

import (
	"fmt"
	"io"
)

// Query the loaded model to get input and output tensor information in
// text/human readable format
func Query(w io.Writer, d Describer) error {

	inputs := d.InputInfo()
	outputs := d.OutputInfo()

	_, err := fmt.Fprintf(w, "Model Input Number: %d, Output Number: %d\n",
		len(inputs), len(outputs))

	if err != nil {
		return fmt.Errorf("error writing model info: %w", err)
	}

	fmt.Fprintf(w, "Input tensors:\n")

	for _, attr := range inputs {
		fmt.Fprintf(w, "  %s\n", attr.String())
	}

	fmt.Fprintf(w, "Output tensors:\n")

	for _, attr := range outputs {
		fmt.Fprintf(w, "  %s\n", attr.String())
	}

	return nil
}
