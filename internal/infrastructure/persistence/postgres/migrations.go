package postgres

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE ROSTER
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create roster reference tables
-- Version: 001

CREATE TABLE IF NOT EXISTS classes (
    id VARCHAR(64) PRIMARY KEY,
    name VARCHAR(100) NOT NULL,
    teacher_id VARCHAR(64) NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS students (
    id VARCHAR(64) PRIMARY KEY,
    display_name VARCHAR(100) NOT NULL,
    class_id VARCHAR(64) NOT NULL DEFAULT '',
    notes TEXT NOT NULL DEFAULT '',
    active BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_students_class_id ON students(class_id);

CREATE TABLE IF NOT EXISTS assignments (
    id VARCHAR(64) PRIMARY KEY,
    class_id VARCHAR(64) NOT NULL DEFAULT '',
    title VARCHAR(200) NOT NULL,
    subject VARCHAR(100) NOT NULL DEFAULT '',
    question_count INTEGER NOT NULL DEFAULT 0,
    archived BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_question_count CHECK (question_count >= 0)
);

CREATE INDEX IF NOT EXISTS idx_assignments_class_id ON assignments(class_id);
`

const migration001Down = `
DROP TABLE IF EXISTS assignments;
DROP TABLE IF EXISTS students;
DROP TABLE IF EXISTS classes;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: CREATE INSIGHTS AND TEACHER ACTIONS
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Migration: Create insight and teacher action tables
-- Version: 002

CREATE TABLE IF NOT EXISTS insights (
    id VARCHAR(64) PRIMARY KEY,
    student_id VARCHAR(64) NOT NULL,
    assignment_id VARCHAR(64) NOT NULL DEFAULT '',
    class_id VARCHAR(64) NOT NULL DEFAULT '',
    subject VARCHAR(100) NOT NULL DEFAULT '',
    insight_type VARCHAR(30) NOT NULL,
    priority VARCHAR(10) NOT NULL,
    confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
    summary TEXT NOT NULL,
    evidence JSONB NOT NULL DEFAULT '[]'::jsonb,
    suggested_actions JSONB NOT NULL DEFAULT '[]'::jsonb,
    status VARCHAR(20) NOT NULL DEFAULT 'pending_review',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    reviewed_at TIMESTAMP WITH TIME ZONE,
    reviewed_by VARCHAR(64) NOT NULL DEFAULT '',

    CONSTRAINT valid_insight_type CHECK (insight_type IN ('check_in', 'celebrate_progress', 'challenge_opportunity', 'monitor')),
    CONSTRAINT valid_priority CHECK (priority IN ('high', 'medium', 'low')),
    CONSTRAINT valid_status CHECK (status IN ('pending_review', 'monitoring', 'action_taken', 'dismissed', 'expired')),
    CONSTRAINT valid_confidence CHECK (confidence >= 0 AND confidence <= 1)
);

CREATE INDEX IF NOT EXISTS idx_insights_student_id ON insights(student_id);
CREATE INDEX IF NOT EXISTS idx_insights_assignment_id ON insights(assignment_id);
CREATE INDEX IF NOT EXISTS idx_insights_class_id ON insights(class_id);
CREATE INDEX IF NOT EXISTS idx_insights_status ON insights(status);
CREATE INDEX IF NOT EXISTS idx_insights_created_at ON insights(created_at DESC);

-- At most one active insight per (student, assignment, type).
CREATE UNIQUE INDEX IF NOT EXISTS uq_insights_active_triple
    ON insights(student_id, assignment_id, insight_type)
    WHERE status IN ('pending_review', 'monitoring');

CREATE TABLE IF NOT EXISTS teacher_actions (
    id VARCHAR(64) PRIMARY KEY,
    insight_id VARCHAR(64) NOT NULL REFERENCES insights(id) ON DELETE CASCADE,
    teacher_id VARCHAR(64) NOT NULL,
    action_type VARCHAR(30) NOT NULL,
    note TEXT NOT NULL DEFAULT '',
    message_to_student TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_action_type CHECK (action_type IN ('mark_reviewed', 'add_note', 'reassign', 'award_badge', 'schedule_checkin', 'draft_message', 'other'))
);

CREATE INDEX IF NOT EXISTS idx_teacher_actions_insight_id ON teacher_actions(insight_id);
CREATE INDEX IF NOT EXISTS idx_teacher_actions_teacher_id ON teacher_actions(teacher_id);
CREATE INDEX IF NOT EXISTS idx_teacher_actions_created_at ON teacher_actions(created_at DESC);
`

const migration002Down = `
DROP TABLE IF EXISTS teacher_actions;
DROP TABLE IF EXISTS insights;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: CREATE PROGRESS AND BADGES
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
-- Migration: Create progress and badge tables
-- Version: 003

CREATE TABLE IF NOT EXISTS progress_records (
    student_id VARCHAR(64) NOT NULL,
    assignment_id VARCHAR(64) NOT NULL,
    attempts INTEGER NOT NULL DEFAULT 0,
    current_attempt INTEGER NOT NULL DEFAULT 0,
    score DOUBLE PRECISION,
    highest_score DOUBLE PRECISION,
    total_time_spent_seconds INTEGER NOT NULL DEFAULT 0,
    hints_used INTEGER NOT NULL DEFAULT 0,
    coach_session_count INTEGER NOT NULL DEFAULT 0,
    started_at TIMESTAMP WITH TIME ZONE,
    first_completed_at TIMESTAMP WITH TIME ZONE,
    last_completed_at TIMESTAMP WITH TIME ZONE,

    PRIMARY KEY (student_id, assignment_id),

    CONSTRAINT valid_attempts CHECK (attempts >= 0),
    CONSTRAINT valid_hints CHECK (hints_used >= 0),
    CONSTRAINT valid_score CHECK (score IS NULL OR (score >= 0 AND score <= 100)),
    CONSTRAINT valid_highest_score CHECK (highest_score IS NULL OR (highest_score >= 0 AND highest_score <= 100))
);

CREATE INDEX IF NOT EXISTS idx_progress_assignment_id ON progress_records(assignment_id);

CREATE TABLE IF NOT EXISTS badges (
    id VARCHAR(64) PRIMARY KEY,
    student_id VARCHAR(64) NOT NULL,
    badge_type VARCHAR(30) NOT NULL,
    message TEXT NOT NULL DEFAULT '',
    assignment_id VARCHAR(64) NOT NULL DEFAULT '',
    issued_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_badge_type CHECK (badge_type IN ('progress_star', 'rising_star', 'perfect_score', 'persistence', 'curiosity'))
);

CREATE INDEX IF NOT EXISTS idx_badges_student_id ON badges(student_id);
CREATE INDEX IF NOT EXISTS idx_badges_issued_at ON badges(issued_at DESC);
`

const migration003Down = `
DROP TABLE IF EXISTS badges;
DROP TABLE IF EXISTS progress_records;
`
