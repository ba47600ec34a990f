// Package metric defines the training metric event carried on the feed and
// the fixed set of series kinds those events are classified into.
//
// An event names its origin with a (type, metric) pair:
//
//	{"type": "train", "metric": "accuracy", "step": 12, "value": 0.71}
//
// Classify maps the five pairs the dashboard plots to a Kind. Every other
// pair is unclassified and is dropped by consumers without error.
//
//	train/accuracy  -> KindTrainAccuracy
//	val/accuracy    -> KindValAccuracy
//	system/gpu_util -> KindGPUUtilization
//	train/loss      -> KindLoss
//	eval/loss       -> KindPerplexity (stored as exp(value))
package metric
