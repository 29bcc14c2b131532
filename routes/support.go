package routes

import (
	"errors"

	"github.com/Aashritha22/airbnb/models"
	"github.com/Aashritha22/airbnb/storage"
	"github.com/Aashritha22/airbnb/utils"
	"github.com/kataras/iris/v12"
	"golang.org/x/exp/slices"
	"gorm.io/gorm"
)

type CreateTicketInput struct {
	Subject           string `json:"subject" validate:"required,max=200"`
	Category          string `json:"category" validate:"required"`
	Priority          string `json:"priority"`
	Description       string `json:"description" validate:"required,max=5000"`
	RelatedBookingID  *uint  `json:"relatedBookingID"`
	RelatedPropertyID *uint  `json:"relatedPropertyID"`
	RelatedPaymentID  *uint  `json:"relatedPaymentID"`
}

// CreateTicket opens a support ticket with the description as its first
// message.
func CreateTicket(ctx iris.Context) {
	claims := utils.Claims(ctx)

	var input CreateTicketInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	if !slices.Contains(models.TicketCategories, input.Category) {
		utils.Error(ctx, iris.StatusBadRequest, "VALIDATION_ERROR", "Unknown ticket category")
		return
	}
	if input.Priority == "" {
		input.Priority = "medium"
	}
	if !slices.Contains(models.TicketPriorities, input.Priority) {
		utils.Error(ctx, iris.StatusBadRequest, "VALIDATION_ERROR", "Unknown ticket priority")
		return
	}

	now := utils.Now()
	ticket := models.SupportTicket{
		TicketNumber:      models.NewTicketNumber(),
		UserID:            claims.ID,
		Subject:           input.Subject,
		Category:          input.Category,
		Priority:          input.Priority,
		Status:            models.TicketOpen,
		Description:       input.Description,
		RelatedBookingID:  input.RelatedBookingID,
		RelatedPropertyID: input.RelatedPropertyID,
		RelatedPaymentID:  input.RelatedPaymentID,
		OpenedAt:          now,
		LastActivityAt:    now,
	}

	txErr := storage.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&ticket).Error; err != nil {
			return err
		}
		return tx.Create(&models.TicketMessage{
			TicketID: ticket.ID,
			Sender:   "user",
			SenderID: claims.ID,
			Message:  input.Description,
		}).Error
	})
	if txErr != nil {
		utils.InternalError(ctx, txErr)
		return
	}

	utils.Success(ctx, iris.StatusCreated, &ticket)
}

// GetMyTickets lists the caller's tickets, most recently active first.
func GetMyTickets(ctx iris.Context) {
	claims := utils.Claims(ctx)
	page, limit, offset := utils.Paging(ctx, 10)

	q := storage.DB.Model(&models.SupportTicket{}).Where("user_id = ?", claims.ID)
	if status := ctx.URLParam("status"); status != "" {
		q = q.Where("status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		utils.InternalError(ctx, err)
		return
	}

	var tickets []models.SupportTicket
	if err := q.Order("last_activity_at DESC").Limit(limit).Offset(offset).
		Find(&tickets).Error; err != nil {
		utils.InternalError(ctx, err)
		return
	}
	utils.SuccessPage(ctx, tickets, page, limit, total)
}

// GetTicket returns one ticket with its thread. Internal notes are
// stripped for non-admin callers.
func GetTicket(ctx iris.Context) {
	claims := utils.Claims(ctx)
	ticket, ok := loadTicket(ctx)
	if !ok {
		return
	}

	if ticket.UserID != claims.ID && !claims.IsAdmin() {
		utils.Error(ctx, iris.StatusForbidden, "ACCESS_DENIED", "Not authorized to access this ticket")
		return
	}

	q := storage.DB.Where("ticket_id = ?", ticket.ID)
	if !claims.IsAdmin() {
		q = q.Where("is_internal = false")
	}
	var messages []models.TicketMessage
	if err := q.Order("created_at ASC").Find(&messages).Error; err != nil {
		utils.InternalError(ctx, err)
		return
	}
	ticket.Messages = messages

	utils.Success(ctx, iris.StatusOK, ticket)
}

type TicketMessageInput struct {
	Message    string `json:"message" validate:"required,max=5000"`
	IsInternal bool   `json:"isInternal"`
}

// AddTicketMessage appends to a ticket's thread. Admin messages stamp
// the first-response time; internal notes are admin-only.
func AddTicketMessage(ctx iris.Context) {
	claims := utils.Claims(ctx)
	ticket, ok := loadTicket(ctx)
	if !ok {
		return
	}

	var input TicketMessageInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	sender := "user"
	if claims.IsAdmin() {
		sender = "admin"
	} else {
		if ticket.UserID != claims.ID {
			utils.Error(ctx, iris.StatusForbidden, "ACCESS_DENIED", "Not authorized to message this ticket")
			return
		}
		input.IsInternal = false
	}
	if ticket.Status == models.TicketClosed {
		utils.Error(ctx, iris.StatusBadRequest, "TICKET_CLOSED", "Ticket is closed")
		return
	}

	now := utils.Now()
	message := models.TicketMessage{
		TicketID:   ticket.ID,
		Sender:     sender,
		SenderID:   claims.ID,
		Message:    input.Message,
		IsInternal: input.IsInternal,
	}

	txErr := storage.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&message).Error; err != nil {
			return err
		}
		ticket.RecordResponse(sender, now)
		return tx.Save(ticket).Error
	})
	if txErr != nil {
		utils.InternalError(ctx, txErr)
		return
	}

	utils.Success(ctx, iris.StatusCreated, &message)
}

type AssignTicketInput struct {
	AdminUserID uint `json:"adminUserID" validate:"required"`
}

// AssignTicket routes a ticket to an admin and moves it in progress.
func AssignTicket(ctx iris.Context) {
	ticket, ok := loadTicket(ctx)
	if !ok {
		return
	}

	var input AssignTicketInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var assignee models.AdminUser
	err := storage.DB.First(&assignee, input.AdminUserID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.Error(ctx, iris.StatusNotFound, "ADMIN_NOT_FOUND", "Admin user not found")
		return
	}
	if err != nil {
		utils.InternalError(ctx, err)
		return
	}

	now := utils.Now()
	before := *ticket
	ticket.Assign(assignee.ID, now)
	ticket.LastActivityAt = now
	if err := storage.DB.Save(ticket).Error; err != nil {
		utils.InternalError(ctx, err)
		return
	}

	utils.Audit(ctx, "ticket.assign", "support_ticket", ticket.ID, before, ticket)
	utils.Success(ctx, iris.StatusOK, ticket)
}

// ResolveTicket marks a ticket resolved; resolving twice keeps the
// original resolution time.
func ResolveTicket(ctx iris.Context) {
	now := utils.Now()
	transitionTicket(ctx, "ticket.resolve", func(t *models.SupportTicket) { t.Resolve(now) })
}

// CloseTicket closes a ticket for good.
func CloseTicket(ctx iris.Context) {
	now := utils.Now()
	transitionTicket(ctx, "ticket.close", func(t *models.SupportTicket) { t.Close(now) })
}

func transitionTicket(ctx iris.Context, action string, apply func(*models.SupportTicket)) {
	ticket, ok := loadTicket(ctx)
	if !ok {
		return
	}

	before := *ticket
	apply(ticket)
	ticket.LastActivityAt = utils.Now()
	if err := storage.DB.Save(ticket).Error; err != nil {
		utils.InternalError(ctx, err)
		return
	}

	utils.Audit(ctx, action, "support_ticket", ticket.ID, before, ticket)
	utils.Success(ctx, iris.StatusOK, ticket)
}

// AdminListTickets lists tickets with status/category/priority filters.
func AdminListTickets(ctx iris.Context) {
	page, limit, offset := utils.Paging(ctx, 10)

	q := storage.DB.Model(&models.SupportTicket{})
	if status := ctx.URLParam("status"); status != "" {
		q = q.Where("status = ?", status)
	}
	if category := ctx.URLParam("category"); category != "" {
		q = q.Where("category = ?", category)
	}
	if priority := ctx.URLParam("priority"); priority != "" {
		q = q.Where("priority = ?", priority)
	}
	if assignee := ctx.URLParamIntDefault("assignedTo", 0); assignee > 0 {
		q = q.Where("assigned_to_id = ?", assignee)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		utils.InternalError(ctx, err)
		return
	}

	var tickets []models.SupportTicket
	if err := q.Preload("User").Order("last_activity_at DESC").
		Limit(limit).Offset(offset).Find(&tickets).Error; err != nil {
		utils.InternalError(ctx, err)
		return
	}
	utils.SuccessPage(ctx, tickets, page, limit, total)
}

// AdminTicketStats aggregates ticket volume and the average hours from
// open to resolution.
func AdminTicketStats(ctx iris.Context) {
	type statusCount struct {
		Status string `json:"status"`
		Count  int64  `json:"count"`
	}
	var byStatus []statusCount
	if err := storage.DB.Model(&models.SupportTicket{}).
		Select("status, COUNT(*) AS count").Group("status").
		Scan(&byStatus).Error; err != nil {
		utils.InternalError(ctx, err)
		return
	}

	type categoryCount struct {
		Category string `json:"category"`
		Count    int64  `json:"count"`
	}
	var byCategory []categoryCount
	storage.DB.Model(&models.SupportTicket{}).
		Select("category, COUNT(*) AS count").Group("category").
		Scan(&byCategory)

	var total, open int64
	storage.DB.Model(&models.SupportTicket{}).Count(&total)
	storage.DB.Model(&models.SupportTicket{}).
		Where("status IN ?", []string{models.TicketOpen, models.TicketInProgress}).Count(&open)

	var avgResolutionHours float64
	storage.DB.Model(&models.SupportTicket{}).
		Where("resolved_at IS NOT NULL").
		Select("COALESCE(AVG(EXTRACT(EPOCH FROM (resolved_at - opened_at)) / 3600), 0)").
		Scan(&avgResolutionHours)

	var avgFirstResponseHours float64
	storage.DB.Model(&models.SupportTicket{}).
		Where("first_response_at IS NOT NULL").
		Select("COALESCE(AVG(EXTRACT(EPOCH FROM (first_response_at - opened_at)) / 3600), 0)").
		Scan(&avgFirstResponseHours)

	utils.Success(ctx, iris.StatusOK, iris.Map{
		"total":                 total,
		"open":                  open,
		"byStatus":              byStatus,
		"byCategory":            byCategory,
		"avgResolutionHours":    avgResolutionHours,
		"avgFirstResponseHours": avgFirstResponseHours,
	})
}

func loadTicket(ctx iris.Context) (*models.SupportTicket, bool) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.Error(ctx, iris.StatusBadRequest, "VALIDATION_ERROR", "Invalid ticket id")
		return nil, false
	}

	var ticket models.SupportTicket
	err = storage.DB.First(&ticket, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.Error(ctx, iris.StatusNotFound, "TICKET_NOT_FOUND", "Ticket not found")
		return nil, false
	}
	if err != nil {
		utils.InternalError(ctx, err)
		return nil, false
	}
	return &ticket, true
}
