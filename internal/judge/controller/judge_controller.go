package controller

import (
	"github.com/gin-gonic/gin"

	"github.com/harsh-s15/iitj-coder/internal/judge/service"
	"github.com/harsh-s15/iitj-coder/internal/judge/testcase"
	"github.com/harsh-s15/iitj-coder/pkg/utils/response"
)

// JudgeController exposes submission intake and status endpoints.
type JudgeController struct {
	intake *service.IntakeService
}

// NewJudgeController creates a new controller.
func NewJudgeController(intake *service.IntakeService) *JudgeController {
	return &JudgeController{intake: intake}
}

// RegisterRoutes mounts the public and internal judge routes.
func (h *JudgeController) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1/judge")
	{
		api.POST("/submissions", h.Submit)
		api.GET("/submissions/:id", h.GetStatus)
	}
	internal := r.Group("/internal")
	{
		internal.POST("/testcases/:questionId", h.UploadTestCases)
	}
}

// Submit accepts code for asynchronous evaluation.
func (h *JudgeController) Submit(c *gin.Context) {
	var req service.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}
	sub, err := h.intake.Submit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, sub)
}

// GetStatus returns the current state of one submission.
func (h *JudgeController) GetStatus(c *gin.Context) {
	submissionID := c.Param("id")
	if submissionID == "" {
		response.BadRequest(c, "Invalid submission id")
		return
	}
	sub, err := h.intake.Status(c.Request.Context(), submissionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, sub)
}

type uploadCaseRequest struct {
	Index  int    `json:"index"`
	Input  string `json:"input"`
	Output string `json:"output"`
}

// UploadTestCases replaces the hidden test case set for a question.
func (h *JudgeController) UploadTestCases(c *gin.Context) {
	questionID := c.Param("questionId")
	if questionID == "" {
		response.BadRequest(c, "Invalid question id")
		return
	}
	var body []uploadCaseRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	cases := make([]testcase.Case, 0, len(body))
	for _, item := range body {
		cases = append(cases, testcase.Case{
			Index:    item.Index,
			Input:    item.Input,
			Expected: item.Output,
		})
	}
	if err := h.intake.ReplaceHiddenCases(c.Request.Context(), questionID, cases); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"questionId": questionID, "count": len(cases)})
}
