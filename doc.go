/*
go-gaze provides a face detection and gaze estimation pipeline for live video
streams.  Each frame passes through an UltraFace detector, the detected faces
are filtered with Non-Maximum Suppression, and each face region is handed to
a gaze regression model which returns the pitch and yaw of the eyes together
with a 3D unit gaze vector.

The root package defines the data types shared between the stages (pixel
buffers, tensors and the typed inference engine contracts).  The numeric
stages live in the geometry, preprocess and postprocess subpackages, the
pipeline subpackage wires them together, and the backend subpackages adapt
ONNX Runtime and OpenCV DNN to the engine contracts.

See example code and usage in the example subdirectory.
*/
package gaze
