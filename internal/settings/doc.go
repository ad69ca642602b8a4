// Package settings reads the YAML file that describes a mark sheet.
//
// A settings file names the coordinate style, the blur and threshold
// parameters, and the sheet layout itself:
//
//	resize_ratio: 1
//	sheet_coord_style: circle
//	sheet_gaussian_ksize: 3
//	sheet_gaussian_std: 1
//	sheet_score_threshold: 0
//	sheet_fit: true
//	sheet:
//	  choice:
//	    A: [1979, 1252, 60]
//	    B: [2179, 1252, 60]
//
// Each region is a list of integers whose length depends on the style: four
// corner coordinates for rect, x/y/width/height for bbox and center/radius
// for circle. Categories and values keep the order they have in the file.
//
// Baselines captured by a fit can be saved to and loaded from a separate
// YAML file so a calibration can be reused across runs.
package settings
