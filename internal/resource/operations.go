package resource

import "github.com/lydakis/dockrest/internal/response"

// Status tables for every daemon call the resource layer issues.
var (
	OpIndex = response.Operation{
		Name: "index",
		Codes: map[int]string{
			200: "no error",
			400: "bad parameter",
			500: "server error",
		},
		Shape: response.ShapeJSON,
	}

	OpCreate = response.Operation{
		Name: "create",
		Codes: map[int]string{
			201: "no error",
			404: "no such container",
			406: "impossible to attach (container not running)",
			500: "server error",
		},
		Shape: response.ShapeJSON,
	}

	OpBuild = response.Operation{
		Name: "build",
		Codes: map[int]string{
			200: "no error",
			500: "server error",
		},
		Shape: response.ShapeJSONSequence,
	}

	OpStart = response.Operation{
		Name: "start",
		Codes: map[int]string{
			204: "no error",
			304: "container already started",
			404: "no such container",
			500: "server error",
		},
		Shape: response.ShapeNone,
	}

	OpShow = response.Operation{
		Name: "show",
		Codes: map[int]string{
			200: "no error",
			404: "no such container",
			500: "server error",
		},
		Shape: response.ShapeJSON,
	}

	OpKill = response.Operation{
		Name: "kill",
		Codes: map[int]string{
			204: "no error",
			404: "no such container",
			500: "server error",
		},
		Shape: response.ShapeNone,
	}

	OpDelete = response.Operation{
		Name: "delete",
		Codes: map[int]string{
			204: "no error",
			400: "bad parameter",
			404: "no such container",
			500: "server error",
		},
		Shape: response.ShapeNone,
	}

	OpWait = response.Operation{
		Name: "wait",
		Codes: map[int]string{
			200: "no error",
			404: "no such container",
			500: "server error",
		},
		Shape: response.ShapeJSON,
	}

	OpLogs = response.Operation{
		Name: "logs",
		Codes: map[int]string{
			101: "no error, hints proxy about hijacking",
			200: "no error, no upgrade header found",
			404: "no such container",
			500: "server error",
		},
		Shape: response.ShapeRawStream,
	}
)
