package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/tomislavmiksik/phoenix-be/internal/model"
	"github.com/tomislavmiksik/phoenix-be/internal/service"
)

// registerTools registers the measurement tools on the given server.
func (s *MCPServer) registerTools(srv *server.MCPServer) {

	// ----- Read tools -----

	srv.AddTool(
		mcp.NewTool("phoenix_list_measurements",
			mcp.WithDescription(
				"List every body measurement recorded for the user, newest first. "+
					"Weights are in kilograms, lengths and circumferences in centimetres.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
		),
		s.handleListMeasurements,
	)

	srv.AddTool(
		mcp.NewTool("phoenix_recent_measurements",
			mcp.WithDescription(
				"Return the user's most recent measurements, newest first. "+
					"At most 10 are ever returned.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithNumber("limit",
				mcp.Description("Maximum number of measurements to return (0-10, default 10)"),
			),
		),
		s.handleRecentMeasurements,
	)

	srv.AddTool(
		mcp.NewTool("phoenix_get_measurement",
			mcp.WithDescription("Fetch a single measurement by its id."),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithNumber("id",
				mcp.Required(),
				mcp.Description("Measurement id"),
			),
		),
		s.handleGetMeasurement,
	)

	// ----- Write tools -----

	srv.AddTool(
		mcp.NewTool("phoenix_record_measurement",
			mcp.WithDescription(
				"Record a new body measurement. Weight and height are required and "+
					"must be between 0 and 1000 (exclusive). Circumferences are optional.",
			),
			mcp.WithToolAnnotation(mutatingAnnotation()),
			mcp.WithNumber("weight", mcp.Required(), mcp.Description("Body weight in kg")),
			mcp.WithNumber("height", mcp.Required(), mcp.Description("Height in cm")),
			mcp.WithNumber("chest", mcp.Description("Chest circumference in cm")),
			mcp.WithNumber("arm", mcp.Description("Arm circumference in cm")),
			mcp.WithNumber("leg", mcp.Description("Leg circumference in cm")),
			mcp.WithNumber("waist", mcp.Description("Waist circumference in cm")),
			mcp.WithString("measurementDate",
				mcp.Description("When the measurement was taken, RFC 3339. Defaults to now."),
			),
		),
		s.handleRecordMeasurement,
	)

	srv.AddTool(
		mcp.NewTool("phoenix_delete_measurement",
			mcp.WithDescription("Permanently delete one of the user's measurements."),
			mcp.WithToolAnnotation(destructiveAnnotation()),
			mcp.WithNumber("id",
				mcp.Required(),
				mcp.Description("Measurement id"),
			),
		),
		s.handleDeleteMeasurement,
	)
}

func (s *MCPServer) handleListMeasurements(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	ms, err := s.measurements.List(ctx, s.username)
	if err != nil {
		return serviceError(err)
	}
	return successJSON(ms)
}

func (s *MCPServer) handleRecentMeasurements(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	limit := request.GetInt("limit", service.RecentWindow)
	ms, err := s.measurements.Recent(ctx, s.username, limit)
	if err != nil {
		return serviceError(err)
	}
	return successJSON(ms)
}

func (s *MCPServer) handleGetMeasurement(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	id, err := requireID(request)
	if err != nil {
		return toolError("%v", err)
	}
	m, err := s.measurements.Get(ctx, s.username, id)
	if err != nil {
		return serviceError(err)
	}
	return successJSON(m)
}

func (s *MCPServer) handleRecordMeasurement(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	var req model.MeasurementRequest
	fields := []struct {
		key string
		dst **float64
	}{
		{"weight", &req.Weight},
		{"height", &req.Height},
		{"chest", &req.ChestCircumference},
		{"arm", &req.ArmCircumference},
		{"leg", &req.LegCircumference},
		{"waist", &req.WaistCircumference},
	}
	for _, f := range fields {
		v, err := optionalFloat(request, f.key)
		if err != nil {
			return toolError("%v", err)
		}
		*f.dst = v
	}
	if req.Weight == nil || req.Height == nil {
		return toolError("weight and height are required")
	}

	date, err := optionalTime(request, "measurementDate")
	if err != nil {
		return toolError("%v", err)
	}
	req.MeasurementDate = date

	m, err := s.measurements.Create(ctx, s.username, req)
	if err != nil {
		return serviceError(err)
	}
	return successJSON(m)
}

func (s *MCPServer) handleDeleteMeasurement(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	id, err := requireID(request)
	if err != nil {
		return toolError("%v", err)
	}
	if err := s.measurements.Delete(ctx, s.username, id); err != nil {
		return serviceError(err)
	}
	return successJSON(map[string]interface{}{"deleted": id})
}
