package avroio

import "github.com/hamba/avro/v2"

// These Avro schemas describe the wire shape of the manifest-list and
// manifest-entry files (spec.md §6, "Manifest files. Avro with
// per-row entries..."), trimmed to the fields this module reads.
const manifestListSchemaJSON = `{
  "type": "record",
  "name": "manifest_file",
  "fields": [
    {"name": "manifest_path", "type": "string"},
    {"name": "manifest_length", "type": "long"},
    {"name": "partition_spec_id", "type": "int"},
    {"name": "content", "type": "int", "default": 0},
    {"name": "sequence_number", "type": "long", "default": 0},
    {"name": "min_sequence_number", "type": "long", "default": 0},
    {"name": "added_snapshot_id", "type": "long"},
    {"name": "partitions", "type": ["null", {"type": "array", "items": {
      "type": "record",
      "name": "partition_field_summary",
      "fields": [
        {"name": "contains_null", "type": "boolean"},
        {"name": "contains_nan", "type": ["null", "boolean"], "default": null},
        {"name": "lower_bound", "type": ["null", "bytes"], "default": null},
        {"name": "upper_bound", "type": ["null", "bytes"], "default": null}
      ]
    }}], "default": null}
  ]
}`

const manifestEntrySchemaJSON = `{
  "type": "record",
  "name": "manifest_entry",
  "fields": [
    {"name": "status", "type": "int"},
    {"name": "snapshot_id", "type": ["null", "long"], "default": null},
    {"name": "data_sequence_number", "type": ["null", "long"], "default": null},
    {"name": "file_sequence_number", "type": ["null", "long"], "default": null},
    {"name": "data_file", "type": {
      "type": "record",
      "name": "data_file",
      "fields": [
        {"name": "content", "type": "int", "default": 0},
        {"name": "file_path", "type": "string"},
        {"name": "file_format", "type": "string"},
        {"name": "partition", "type": {"type": "map", "values": "bytes"}, "default": {}},
        {"name": "record_count", "type": "long"},
        {"name": "file_size_in_bytes", "type": "long"},
        {"name": "column_sizes", "type": ["null", {"type": "map", "values": "long"}], "default": null},
        {"name": "value_counts", "type": ["null", {"type": "map", "values": "long"}], "default": null},
        {"name": "null_value_counts", "type": ["null", {"type": "map", "values": "long"}], "default": null},
        {"name": "nan_value_counts", "type": ["null", {"type": "map", "values": "long"}], "default": null},
        {"name": "lower_bounds", "type": ["null", {"type": "map", "values": "bytes"}], "default": null},
        {"name": "upper_bounds", "type": ["null", {"type": "map", "values": "bytes"}], "default": null},
        {"name": "equality_ids", "type": ["null", {"type": "array", "items": "int"}], "default": null},
        {"name": "split_offsets", "type": ["null", {"type": "array", "items": "long"}], "default": null},
        {"name": "sort_order_id", "type": ["null", "int"], "default": null}
      ]
    }}
  ]
}`

var (
	manifestListSchema  = avro.MustParse(manifestListSchemaJSON)
	manifestEntrySchema = avro.MustParse(manifestEntrySchemaJSON)
)
